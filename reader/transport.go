package reader

import "net/http"

const userAgent = "powerposition-extract/1.0"

// userAgentTransport stamps every outgoing request with a fixed agent.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}
