package clients

import (
	"net/http"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// NewHTTPClient returns the client used for plain REST feeds.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}
