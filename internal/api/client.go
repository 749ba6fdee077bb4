// Package api is the HTTP transport for the chat service. Every request gets
// the current bearer credential attached, and authentication rejections are
// reported back to the credential owner before the error reaches the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/guidechat/internal"
)

const maxErrorBody = 64 << 10

// Credentials is the view of the credential owner the transport needs.
type Credentials interface {
	Credential() string
	IsAuthenticated() bool
	Logout()
}

// Client issues calls against the chat service
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	creds Credentials
}

// NewClient creates a client for baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client using hc for all requests
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// SetCredentials binds the credential owner consulted on every request.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	anonymous   bool // login and register go out without a bearer token
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return &Error{Method: r.method, Path: r.path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	creds := c.credentials()
	if !r.anonymous && creds != nil {
		if token := creds.Credential(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()
	internal.Logger().Debugw("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{
			Method: r.method,
			Path:   r.path,
			Status: resp.StatusCode,
			Detail: parseDetail(body),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.rejected(creds, apiErr)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ShapeError{Path: r.path, Err: err}
	}
	return nil
}

// rejected forces a logout once per 401, but only while the client still
// believes it is authenticated.
func (c *Client) rejected(creds Credentials, apiErr *Error) {
	if creds == nil || !creds.IsAuthenticated() {
		internal.LogDebug("Ignoring 401 from %s while unauthenticated", apiErr.Path)
		return
	}
	internal.LogWarn("Credential rejected by %s %s, logging out", apiErr.Method, apiErr.Path)
	creds.Logout()
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// Login exchanges a username and password for a bearer token
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok Token
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		anonymous:   true,
	}, &tok)
	if err != nil {
		return Token{}, err
	}
	if tok.AccessToken == "" {
		return Token{}, &ShapeError{Path: "/auth/login", Field: "access_token"}
	}
	return tok, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, username, password string) error {
	body, err := jsonBody(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/register",
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, nil)
}

// SubmitMessage queues message for sessionID and returns the task handle
func (c *Client) SubmitMessage(ctx context.Context, message, sessionID string) (Submission, error) {
	body, err := jsonBody(chatRequest{Message: message, SessionID: sessionID})
	if err != nil {
		return Submission{}, err
	}

	var sub Submission
	if err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/chat",
		body:        body,
		contentType: "application/json",
	}, &sub); err != nil {
		return Submission{}, err
	}
	if sub.TaskID == "" {
		return Submission{}, &ShapeError{Path: "/chat", Field: "task_id"}
	}
	return sub, nil
}

// TaskResult fetches the current state of a queued task
func (c *Client) TaskResult(ctx context.Context, taskID string) (TaskResult, error) {
	path := "/chat/results/" + url.PathEscape(taskID)

	var res TaskResult
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &res); err != nil {
		return TaskResult{}, err
	}
	if res.Status == "" {
		return TaskResult{}, &ShapeError{Path: path, Field: "status"}
	}
	return res, nil
}

// History returns the stored turns of sessionID, oldest first
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryTurn, error) {
	path := "/chat/history/" + url.PathEscape(sessionID)

	var turns []HistoryTurn
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// Ping checks that the service root answers. Any HTTP status counts as
// reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, &Error{Method: http.MethodGet, Path: "/", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Method: http.MethodGet, Path: "/", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
