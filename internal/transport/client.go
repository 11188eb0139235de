// Package transport carries requests to the pricing API and turns failed
// responses into typed errors.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// FormContentType is the content type of form-encoded API requests.
const FormContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// Client sends HTTP requests with the headers the API expects.
type Client struct {
	http *http.Client
}

// New creates a transport client. A nil httpClient gets a client with
// DefaultHTTPTimeout.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{http: httpClient}
}

// Do performs an HTTP request with the common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", constants.UserAgent)
	}
	return c.http.Do(req)
}

// PostForm posts form as a URL-encoded body.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &errors.APIError{Message: "cannot build request for " + endpoint, Err: err}
	}
	req.Header.Set("Content-Type", FormContentType)
	return c.Do(req)
}
