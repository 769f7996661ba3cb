package datasource

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultRequestTimeout bounds a single provider request
const DefaultRequestTimeout = 5 * time.Second

// NewHTTPClient builds the client used for provider requests.
// retryMax 0 means exactly one attempt per request.
func NewHTTPClient(timeout time.Duration, retryMax int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if retryMax < 0 {
		retryMax = 0
	}

	rc := retryablehttp.NewClient()
	// request URLs carry the API key
	rc.Logger = nil
	rc.RetryMax = retryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}
