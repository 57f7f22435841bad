package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewDefaultHTTPClient creates a client for a single upstream host.
// It sets no overall timeout; callers bound each request with a context.
// maxConnsPerHost caps parallel connections, normally the fan-out width.
func NewDefaultHTTPClient(maxConnsPerHost int) *http.Client {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 1
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.MaxConnsPerHost = maxConnsPerHost
	transport.MaxIdleConnsPerHost = maxConnsPerHost
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second

	return &http.Client{Transport: transport}
}
