package fetch

import "net/http"

// headerInjectingTransport wraps an http.RoundTripper to inject
// a cookie and custom headers into every request.
//
// Injecting at the transport level means redirects carry the same
// credentials as the first request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// newHeaderInjectingTransport wraps base, or http.DefaultTransport when base
// is nil.
func newHeaderInjectingTransport(base http.RoundTripper, cookie string, headers map[string]string) *headerInjectingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &headerInjectingTransport{base: base, cookie: cookie, headers: copied}
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
