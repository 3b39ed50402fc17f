package httpclient

import (
	"net/http"
	"time"
)

// New returns an http.Client configured for outbound requests.
//
// Every network call in this tool carries an explicit bounded timeout; the
// scheduler's retry layer is the only recovery mechanism above it.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: Transport(),
	}
}

// Transport returns an http.Transport clone that respects the standard
// HTTP(S)_PROXY/NO_PROXY environment variables.
func Transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}

	transport := base.Clone()
	transport.Proxy = http.ProxyFromEnvironment
	return transport
}
