package exchange

import (
	"fmt"
	"hash/fnv"
	"time"
)

// capturedAtLayout is the wall-clock format the dashboard shows next to each
// exchange.
const capturedAtLayout = "2006-01-02 15:04:05"

// Exchange defines the structure of records sent to the dashboard ingestion
// endpoint.
type Exchange struct {
	ID              string            `json:"id"`
	Timestamp       float64           `json:"timestamp"` // seconds since epoch, fractional
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	Host            string            `json:"host"`
	Path            string            `json:"path"`
	Scheme          string            `json:"scheme"`
	RequestHeaders  map[string]string `json:"request_headers"`
	RequestBody     string            `json:"request_body"`
	ResponseStatus  *int              `json:"response_status"`         // null when the flow failed in transit
	ResponseHeaders map[string]string `json:"response_headers"`        // empty map on failure
	ResponseBody    string            `json:"response_body"`           // error classification on failed flows
	ErrorDetails    string            `json:"error_details,omitempty"` // raw transport error, failures only
	LatencyMs       int64             `json:"latency_ms"`
	CapturedAt      string            `json:"captured_at"`
}

// Options control body handling during assembly. The zero value keeps bodies
// at full fidelity and redacts nothing.
type Options struct {
	// BodyMaxBytes caps the rendered request and response bodies. Zero
	// means unbounded.
	BodyMaxBytes int

	// RedactHeaders lists request header names, compared
	// case-insensitively, whose values are masked.
	RedactHeaders []string

	// RedactJSONPaths lists JSON paths masked inside JSON request bodies.
	RedactJSONPaths []string
}

// Assemble builds the record for a flow whose outcome is known. observed is
// the moment the outcome hook fired and anchors the id, both timestamps and
// the latency. A zero start means the request hook was never observed and
// latency degrades to zero. Assembly always succeeds; every optional input
// has a fallback.
func Assemble(f *Flow, start, observed time.Time, opts Options) *Exchange {
	e := &Exchange{
		ID:              NewID(f.Request.URL, observed),
		Timestamp:       float64(observed.UnixNano()) / float64(time.Second),
		URL:             f.Request.URL,
		Method:          f.Request.Method,
		Host:            f.Request.Host,
		Path:            f.Request.Path,
		Scheme:          f.Request.Scheme,
		RequestHeaders:  copyHeaders(f.Request.Headers),
		RequestBody:     requestBodyText(f.Request.Body, opts),
		ResponseHeaders: map[string]string{},
		LatencyMs:       latencyMs(start, observed),
		CapturedAt:      observed.Format(capturedAtLayout),
	}

	redactHeaders(e.RequestHeaders, opts.RedactHeaders)

	if f.Response != nil {
		status := f.Response.StatusCode
		e.ResponseStatus = &status
		e.ResponseHeaders = copyHeaders(f.Response.Headers)
		e.ResponseBody = bodyText(f.Response.Body, opts.BodyMaxBytes)
	} else {
		e.ResponseBody = ClassifyNetworkError(f.Err)
		e.ErrorDetails = f.Err
	}

	return e
}

// NewID derives a record id from the observation time and a low-cardinality
// hash of the URL. Collisions only affect log readability, not correctness.
func NewID(url string, observed time.Time) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return fmt.Sprintf("exchange_%d_%d", observed.UnixMilli(), h.Sum32()%10000)
}

func latencyMs(start, observed time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	return observed.Sub(start).Milliseconds()
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
