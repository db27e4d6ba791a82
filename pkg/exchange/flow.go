package exchange

// Request is the request half of a flow, copied field by field out of the
// host engine's representation at the hook boundary.
type Request struct {
	Method string
	URL    string // fully qualified, scheme included
	Host   string
	Path   string
	Scheme string

	// Headers keeps the original header casing. Repeated headers collapse
	// to their last value.
	Headers map[string]string

	Body []byte
}

// Response carries the upstream answer for flows that completed.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Flow is one observed HTTP exchange. The engine adapter builds a fresh Flow
// per hook call and hands ownership over; the capture layer never holds on
// to engine objects.
type Flow struct {
	// ID is the engine's identity for the flow. It correlates the request
	// hook with the later response or error hook.
	ID string

	Request  Request
	Response *Response

	// Err holds the raw transport error text for flows that failed before
	// a response arrived.
	Err string
}
