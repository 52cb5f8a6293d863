package logging

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
)

const (
	traceparentHeader       = "traceparent"
	cloudTraceContextHeader = "X-Cloud-Trace-Context"
)

// W3C Trace Context format: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(
	`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`,
)

// Legacy Google format: TRACE_ID/SPAN_ID;o=OPTIONS with a decimal span id.
var cloudTraceRe = regexp.MustCompile(`^([0-9a-fA-F]{32})(?:/([0-9]+))?(?:;o=([01]))?$`)

// spanContext is the trace position carried by an incoming request.
type spanContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// parseSpanContext reads traceparent, then falls back to X-Cloud-Trace-Context.
func parseSpanContext(h http.Header) (spanContext, bool) {
	if m := traceparentRe.FindStringSubmatch(h.Get(traceparentHeader)); m != nil {
		return spanContext{TraceID: strings.ToLower(m[2]), SpanID: m[3], Sampled: m[4] == "01"}, true
	}
	if m := cloudTraceRe.FindStringSubmatch(h.Get(cloudTraceContextHeader)); m != nil {
		return spanContext{TraceID: strings.ToLower(m[1]), SpanID: m[2], Sampled: m[3] == "1"}, true
	}
	return spanContext{}, false
}

func (sc spanContext) resource(projectID string) string {
	return fmt.Sprintf("projects/%s/traces/%s", projectID, sc.TraceID)
}

// traceAttrs returns the Cloud Logging trace correlation fields, or nil when
// there is no project or no parsable trace header.
func traceAttrs(h http.Header, projectID string) []slog.Attr {
	if projectID == "" {
		return nil
	}
	sc, ok := parseSpanContext(h)
	if !ok {
		return nil
	}

	attrs := []slog.Attr{slog.String("logging.googleapis.com/trace", sc.resource(projectID))}
	if sc.SpanID != "" {
		attrs = append(attrs, slog.String("logging.googleapis.com/spanId", sc.SpanID))
	}
	return append(attrs, slog.Bool("logging.googleapis.com/trace_sampled", sc.Sampled))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var resolveProjectID = sync.OnceValue(func() string {
	return firstNonEmpty(
		os.Getenv("FIREBASE_PROJECT_ID"),
		os.Getenv("GOOGLE_CLOUD_PROJECT"),
		os.Getenv("GCP_PROJECT"),
		os.Getenv("GCLOUD_PROJECT"),
	)
})
