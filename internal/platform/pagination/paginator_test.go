package pagination

import (
	"net/url"
	"testing"
)

type testCard struct {
	Handle string
	Name   string
}

func makeCards(n int) []testCard {
	items := make([]testCard, n)
	for i := range n {
		items[i] = testCard{Handle: string(rune('a' + i)), Name: "card-" + string(rune('a'+i))}
	}
	return items
}

func handleOf(item testCard) string { return item.Handle }

func TestPaginate_FirstPage(t *testing.T) {
	items := makeCards(10)
	result := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.Total != 10 {
		t.Fatalf("expected total 10, got %d", result.Total)
	}
	if result.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
	if result.PrevCursor != "" {
		t.Fatalf("expected no prev cursor, got %q", result.PrevCursor)
	}
}

func TestPaginate_SecondPage(t *testing.T) {
	items := makeCards(10)
	first := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	cursor, err := DecodeCursor(first.NextCursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	second := Paginate(items, cursor, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(second.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(second.Items))
	}
	if second.Items[0].Handle != "d" {
		t.Fatalf("expected first item 'd', got %q", second.Items[0].Handle)
	}
	if second.PrevCursor == "" {
		t.Fatal("expected prev cursor on second page")
	}
}

func TestPaginate_LastPage(t *testing.T) {
	items := makeCards(5)
	first := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	cursor, err := DecodeCursor(first.NextCursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	second := Paginate(items, cursor, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 items on last page, got %d", len(second.Items))
	}
	if second.NextCursor != "" {
		t.Fatalf("expected no next cursor on last page, got %q", second.NextCursor)
	}
}

func TestPaginate_EmptyItems(t *testing.T) {
	result := Paginate([]testCard{}, Cursor{}, 10, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(result.Items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(result.Items))
	}
	if result.Total != 0 {
		t.Fatalf("expected total 0, got %d", result.Total)
	}
}

func TestPaginate_LimitExceedsItems(t *testing.T) {
	items := makeCards(3)
	result := Paginate(items, Cursor{}, 100, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.NextCursor != "" {
		t.Fatalf("expected no next cursor, got %q", result.NextCursor)
	}
}

func TestPaginate_PreservesQueryParams(t *testing.T) {
	items := makeCards(10)
	q := url.Values{"theme": {"galaxy"}}
	result := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", q)
	if result.LinkHeader == "" {
		t.Fatal("expected link header")
	}
}

func TestPaginate_CursorNotFound(t *testing.T) {
	items := makeCards(5)
	cursor := Cursor{Type: "profile", Value: "nonexistent"}
	result := Paginate(items, cursor, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	// When cursor value is not found, starts from beginning.
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
}

func TestPaginate_PrevCursorSecondPage(t *testing.T) {
	items := makeCards(10)
	first := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	cursor, err := DecodeCursor(first.NextCursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	second := Paginate(items, cursor, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if second.PrevCursor == "" {
		t.Fatal("expected prev cursor on second page")
	}
	prev, err := DecodeCursor(second.PrevCursor)
	if err != nil {
		t.Fatalf("decode prev cursor: %v", err)
	}
	if prev.Value != "" {
		t.Fatalf("expected empty prev cursor value for first page, got %q", prev.Value)
	}
}

func TestPaginate_PrevCursorThirdPage(t *testing.T) {
	items := makeCards(10)
	first := Paginate(items, Cursor{}, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	c1, err := DecodeCursor(first.NextCursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	second := Paginate(items, c1, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	c2, err := DecodeCursor(second.NextCursor)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	third := Paginate(items, c2, 3, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if third.PrevCursor == "" {
		t.Fatal("expected prev cursor on third page")
	}
	prev, err := DecodeCursor(third.PrevCursor)
	if err != nil {
		t.Fatalf("decode prev cursor: %v", err)
	}
	if prev.Value != "c" {
		t.Fatalf("expected prev cursor to point to %q, got %q", "c", prev.Value)
	}
}

func TestPaginate_CursorTypeMismatch(t *testing.T) {
	items := makeCards(5)
	cursor := Cursor{Type: "user", Value: "b"}
	result := Paginate(items, cursor, 2, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if result.Items[0].Handle != "a" {
		t.Fatalf("expected cursor of another type to be ignored, got %q", result.Items[0].Handle)
	}
}

func TestPaginate_DefaultLimit(t *testing.T) {
	items := makeCards(25)
	for i := range items {
		items[i].Handle = string(rune('a'+i/26)) + string(rune('a'+i%26))
	}
	result := Paginate(items, Cursor{}, 0, "profile", handleOf, "/v1/users/u1/profiles", nil)
	if len(result.Items) != DefaultLimit {
		t.Fatalf("expected %d items, got %d", DefaultLimit, len(result.Items))
	}
}
