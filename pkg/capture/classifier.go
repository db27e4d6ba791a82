package capture

import "strings"

// Classifier decides which proxied flows are AI provider calls.
type Classifier struct {
	baseURLs []string
	methods  map[string]struct{}
}

// NewClassifier builds a classifier from provider base URLs and body-bearing
// request methods. URLs are matched by prefix, methods case-insensitively.
func NewClassifier(baseURLs, methods []string) *Classifier {
	c := &Classifier{
		baseURLs: append([]string(nil), baseURLs...),
		methods:  make(map[string]struct{}, len(methods)),
	}
	for _, m := range methods {
		c.methods[strings.ToUpper(m)] = struct{}{}
	}
	return c
}

// MatchesProvider reports whether the URL points at one of the configured
// provider endpoints.
func (c *Classifier) MatchesProvider(url string) bool {
	for _, base := range c.baseURLs {
		if strings.HasPrefix(url, base) {
			return true
		}
	}
	return false
}

// ShouldCapture reports whether a request is an AI call worth recording: it
// targets a provider endpoint, uses a body-bearing method and actually
// carries a body.
func (c *Classifier) ShouldCapture(method, url string, body []byte) bool {
	if !c.MatchesProvider(url) {
		return false
	}
	if _, ok := c.methods[strings.ToUpper(method)]; !ok {
		return false
	}
	return len(body) > 0
}
