package respond

import (
	"mime"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/labstack/echo/v5"
)

const (
	mimeJSON        = "application/json"
	mimeCBOR        = "application/cbor"
	mimeProblemJSON = "application/problem+json"
	mimeProblemCBOR = "application/problem+cbor"
)

// acceptRange is one media range of an Accept header.
type acceptRange struct {
	mediaType string
	q         float64
}

// parseAccept splits an Accept header into media ranges. Malformed ranges are
// skipped; a missing or unparsable q counts as 1.
func parseAccept(header string) []acceptRange {
	var out []acceptRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		if !strings.Contains(mt, "/") {
			mt += "/*"
		}
		r := acceptRange{mediaType: mt, q: 1}
		if raw, ok := params["q"]; ok {
			if q, err := strconv.ParseFloat(raw, 64); err == nil && q >= 0 && q <= 1 {
				r.q = q
			}
		}
		out = append(out, r)
	}
	return out
}

// specificity ranks how closely mediaType names a family ("json" or "cbor").
// Zero means no match.
func specificity(mediaType, family string) int {
	typ, sub, _ := strings.Cut(mediaType, "/")
	switch {
	case typ == "application" && sub == "problem+"+family:
		return 4
	case typ == "application" && (sub == family || strings.HasSuffix(sub, "+"+family)):
		return 3
	case typ == "application" && sub == "*":
		return 2
	case typ == "*" && sub == "*":
		return 1
	default:
		return 0
	}
}

// bestMatch returns the q value of the most specific range matching family,
// preferring the higher q between ranges of equal specificity.
func bestMatch(ranges []acceptRange, family string) (q float64, rank int) {
	q = -1
	for _, r := range ranges {
		if r.q == 0 {
			continue
		}
		s := specificity(r.mediaType, family)
		if s == 0 {
			continue
		}
		if s > rank || (s == rank && r.q > q) {
			q, rank = r.q, s
		}
	}
	return q, rank
}

// wantsCBOR reports whether the Accept header prefers CBOR over JSON. Quality
// decides first and specificity breaks ties; JSON wins everything else.
func wantsCBOR(header string) bool {
	ranges := parseAccept(header)
	if len(ranges) == 0 {
		return false
	}
	cborQ, cborRank := bestMatch(ranges, "cbor")
	jsonQ, jsonRank := bestMatch(ranges, "json")
	switch {
	case cborQ <= 0:
		return false
	case cborQ != jsonQ:
		return cborQ > jsonQ
	default:
		return cborRank > jsonRank
	}
}

// Negotiate writes data as CBOR when the client prefers it and JSON otherwise.
func Negotiate(c *echo.Context, status int, data any) error {
	if !wantsCBOR(c.Request().Header.Get("Accept")) {
		return c.JSON(status, data)
	}
	b, err := cbor.Marshal(data)
	if err != nil {
		return err
	}
	return c.Blob(status, mimeCBOR, b)
}
