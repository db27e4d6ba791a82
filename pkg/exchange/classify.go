package exchange

import "strings"

// ClassifyNetworkError maps raw transport error text onto the short
// human-readable summary shown as the response body of a failed exchange.
// Matching is a case-insensitive substring scan; the first category hit
// wins.
func ClassifyNetworkError(detail string) string {
	msg := strings.ToLower(detail)
	switch {
	case strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "deadline exceeded"):
		return "Request timed out"
	case strings.Contains(msg, "connection refused"):
		return "Connection refused"
	case strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "x509") ||
		strings.Contains(msg, "tls") ||
		strings.Contains(msg, "ssl"):
		return "TLS or certificate error"
	case strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "name resolution") ||
		strings.Contains(msg, "dns"):
		return "DNS resolution failed"
	case strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "broken pipe"):
		return "Connection reset"
	default:
		return "Network error"
	}
}
