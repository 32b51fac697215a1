package httpclient

import (
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout applies when New is given a zero timeout.
const DefaultTimeout = 10 * time.Second

// New returns a client with its own transport. An empty or unparsable
// proxyURL leaves the transport without a proxy.
func New(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
