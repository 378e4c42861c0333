// internal/arcgis/client.go
package arcgis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	adminBase  = "/arcgis/admin/"
	formatJSON = "json"
)

// ErrNotAuthenticated means call was reached before Authenticate.
// This is a programming-contract violation, not a retryable condition.
var ErrNotAuthenticated = errors.New("arcgis: not authenticated")

// AuthError is a failed credential exchange. It carries the
// server-reported message when one was available.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return "arcgis: authentication failed: " + e.Message
	}
	return fmt.Sprintf("arcgis: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a failed admin API call: a transport failure, a non-2xx
// status, or a well-formed response carrying an error document.
type APIError struct {
	Endpoint string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("arcgis: %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("arcgis: %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Config is minimal transport config.
type Config struct {
	ServerURL string

	// HTTPClient is optional; the boundary owns TLS trust and injects
	// a client configured for it.
	HTTPClient *http.Client

	Timeout time.Duration
}

// Client executes authenticated requests against one server's admin
// API. It holds the session token for the process lifetime; the token
// is never renewed. An expired session surfaces as per-call failures.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// NewClient builds an unauthenticated client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("arcgis: server url required")
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	if cfg.Timeout > 0 {
		httpc.Timeout = cfg.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		httpc:   httpc,
	}, nil
}

// Authenticate exchanges credentials for a session token scoped to the
// requesting client's network identity. One attempt, no renewal.
func (c *Client) Authenticate(username, password string) error {
	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)
	params.Set("client", "requestip")
	params.Set("f", formatJSON)

	resp, err := c.httpc.PostForm(c.baseURL+adminBase+"generateToken", params)
	if err != nil {
		return &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &AuthError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var doc struct {
		Token string         `json:"token"`
		Error *errorDocument `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return &AuthError{Err: err}
	}

	// Success requires a token field. Any other shape is a failure,
	// with the embedded message when the server sent one.
	if doc.Token == "" {
		msg := "no token in response"
		if doc.Error != nil && doc.Error.Message != "" {
			msg = doc.Error.Message
		}
		return &AuthError{Message: msg}
	}

	c.token = doc.Token
	return nil
}

// call executes one authenticated request. The session token and JSON
// format marker ride on every call: in the query string for GET, in
// the form body for POST. When out is non-nil the response document is
// decoded into it after the error-document check.
func (c *Client) call(method, endpoint string, params url.Values, out any) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}

	merged := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	merged.Set("token", c.token)
	merged.Set("f", formatJSON)

	target := c.baseURL + adminBase + endpoint

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = c.httpc.Get(target + "?" + merged.Encode())
	case http.MethodPost:
		resp, err = c.httpc.PostForm(target, merged)
	default:
		return &APIError{Endpoint: endpoint, Message: "unsupported method " + method}
	}
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: endpoint, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	// API-level errors arrive as a 200 carrying an error document.
	// Checked before the document is handed to the caller.
	var probe struct {
		Error *errorDocument `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	if probe.Error != nil {
		msg := probe.Error.Message
		if msg == "" {
			msg = "unknown error"
		}
		return &APIError{Endpoint: endpoint, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Endpoint: endpoint, Err: err}
	}
	return nil
}
