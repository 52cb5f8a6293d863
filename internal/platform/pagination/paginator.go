package pagination

import "net/url"

// Page is one slice of a listing plus navigation cursors.
type Page[T any] struct {
	Items      []T
	Total      int
	NextCursor string
	PrevCursor string
	LinkHeader string
}

// Paginate slices items, which must already be in stable key order, starting
// after the item whose key equals cursor.Value. An unknown cursor starts from
// the beginning.
func Paginate[T any](
	items []T,
	cursor Cursor,
	limit int,
	cursorType string,
	keyOf func(T) string,
	baseURL string,
	query url.Values,
) Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := 0
	if cursor.Value != "" && cursor.Type == cursorType {
		for i, item := range items {
			if keyOf(item) == cursor.Value {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(items))

	page := Page[T]{
		Items: items[start:end],
		Total: len(items),
	}
	if end < len(items) && end > start {
		page.NextCursor = Cursor{Type: cursorType, Value: keyOf(items[end-1])}.Encode()
	}
	if start > 0 {
		prevStart := max(start-limit, 0)
		prev := Cursor{Type: cursorType}
		if prevStart > 0 {
			prev.Value = keyOf(items[prevStart-1])
		}
		page.PrevCursor = prev.Encode()
	}
	page.LinkHeader = BuildLinkHeader(baseURL, query, page.NextCursor, page.PrevCursor)

	return page
}
