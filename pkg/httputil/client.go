// Package httputil holds the shared HTTP plumbing for outbound webhook
// delivery and the concurrency bound used by batch analysis.
package httputil

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxDrainSize bounds how much of a response body is drained before the
// connection goes back to the pool.
const maxDrainSize = 10 * 1024 * 1024

// sharedTransport pools TCP connections across every outbound client so
// repeated webhook deliveries reuse connections.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// NewHTTPClient returns a client on the shared pooled transport with the
// given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: sharedTransport,
		Timeout:   timeout,
	}
}

// ReadErrorBody reads a response body for inclusion in an error message,
// capped at 1MB.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// CheckResponse treats any non-2xx status as an error carrying the service
// name, status and a bounded slice of the body.
func CheckResponse(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := ReadErrorBody(resp.Body)
	return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, string(body))
}

// DrainAndClose drains and closes a response body so the underlying
// connection can be reused.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, maxDrainSize))
		_ = body.Close()
	}
}
