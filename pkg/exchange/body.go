package exchange

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// truncationMarker is appended when a body is cut at BodyMaxBytes.
const truncationMarker = "... [truncated]"

// redactedValue replaces header values and JSON fields named by the
// redaction lists.
const redactedValue = "***REDACTED***"

// requestBodyText renders a request body for the record. Redaction runs
// before the size cap. An absent body yields an empty string.
func requestBodyText(b []byte, opts Options) string {
	if len(b) == 0 {
		return ""
	}
	body := redactJSONPaths(string(b), opts.RedactJSONPaths)
	return capBody(body, opts.BodyMaxBytes)
}

// bodyText renders a response body for the record. An absent body yields an
// empty string.
func bodyText(b []byte, maxBytes int) string {
	if len(b) == 0 {
		return ""
	}
	return capBody(string(b), maxBytes)
}

func capBody(body string, maxBytes int) string {
	if maxBytes > 0 && len(body) > maxBytes {
		return body[:maxBytes] + truncationMarker
	}
	return body
}

// redactHeaders masks the values of the named headers in place. Names are
// compared case-insensitively.
func redactHeaders(headers map[string]string, names []string) {
	if len(names) == 0 {
		return
	}
	set := toLowerSet(names)
	for k := range headers {
		if _, ok := set[strings.ToLower(k)]; ok {
			headers[k] = redactedValue
		}
	}
}

// redactJSONPaths masks the given paths inside a JSON body. Paths that do
// not exist are left alone so redaction never grows the document. Non-JSON
// bodies pass through untouched.
func redactJSONPaths(body string, paths []string) string {
	if len(paths) == 0 || !gjson.Valid(body) {
		return body
	}
	for _, path := range paths {
		if !gjson.Get(body, path).Exists() {
			continue
		}
		masked, err := sjson.Set(body, path, redactedValue)
		if err != nil {
			continue
		}
		body = masked
	}
	return body
}

func toLowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
