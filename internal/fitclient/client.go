/*
Package fitclient is the HTTP client for the FitCoachAI API. It covers the
generation gateway, chat history, saved plans and the daily message. Every
call takes the caller's bearer token explicitly.
*/
package fitclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FitCoachAI/internal/coach"
)

const (
	// DefaultTimeout bounds a whole request, including generation on the server.
	DefaultTimeout = 90 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 4 * 1024 * 1024
)

// ErrNoSession is returned when no bearer token is available.
var ErrNoSession = errors.New("no active session")

// APIError is a non-2xx response. Message carries the server's "error" field
// verbatim and is empty when the body had none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fitcoach api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("fitcoach api: HTTP %d: %s", e.StatusCode, e.Message)
}

// HistoryPart is one text part of a gateway history entry.
type HistoryPart struct {
	Text string `json:"text"`
}

// HistoryEntry is a prior turn sent to the gateway. Role is "user" or "model".
type HistoryEntry struct {
	Role  string        `json:"role"`
	Parts []HistoryPart `json:"parts"`
}

// ChatRequest is the generation gateway request body.
type ChatRequest struct {
	Prompt         string         `json:"prompt"`
	Context        string         `json:"context"`
	ChatType       string         `json:"chatType"`
	History        []HistoryEntry `json:"history"`
	IsRegeneration bool           `json:"isRegeneration,omitempty"`
}

// Message is a stored chat turn.
type Message struct {
	ID        int64     `json:"id,omitempty"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Plan is a saved workout or diet.
type Plan struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to one FitCoachAI server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL. A nil httpClient uses one with DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

/* ====================================================================
                            Generation
==================================================================== */

// Chat asks the gateway for the next coach reply.
func (c *Client) Chat(ctx context.Context, token string, req ChatRequest) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, token, http.MethodPost, "/ai/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// DailyMessage returns today's motivational message.
func (c *Client) DailyMessage(ctx context.Context, token string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/ai/daily-message", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

/* ====================================================================
                           Chat History
==================================================================== */

func messagesPath(ct coach.ChatType) string {
	return "/chat/" + url.PathEscape(ct.String()) + "/messages"
}

// ListMessages returns the stored history of a chat type, oldest first.
func (c *Client) ListMessages(ctx context.Context, token string, ct coach.ChatType) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, token, http.MethodGet, messagesPath(ct), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendMessage stores one turn.
func (c *Client) AppendMessage(ctx context.Context, token string, ct coach.ChatType, m Message) error {
	return c.do(ctx, token, http.MethodPost, messagesPath(ct), m, nil)
}

// SyncMessages stores the turns the server does not have yet and reports how
// many were written.
func (c *Client) SyncMessages(ctx context.Context, token string, ct coach.ChatType, msgs []Message) (int64, error) {
	body := struct {
		Messages []Message `json:"messages"`
	}{Messages: msgs}
	var resp struct {
		Inserted int64 `json:"inserted"`
	}
	if err := c.do(ctx, token, http.MethodPost, messagesPath(ct)+"/sync", body, &resp); err != nil {
		return 0, err
	}
	return resp.Inserted, nil
}

// ClearMessages deletes the whole history of a chat type.
func (c *Client) ClearMessages(ctx context.Context, token string, ct coach.ChatType) error {
	return c.do(ctx, token, http.MethodDelete, messagesPath(ct), nil, nil)
}

/* ====================================================================
                            Saved Plans
==================================================================== */

// SavePlan stores content under name as a plan of kind ct.
func (c *Client) SavePlan(ctx context.Context, token string, ct coach.ChatType, name, content string) (Plan, error) {
	body := struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}{Name: name, Content: content}
	var plan Plan
	if err := c.do(ctx, token, http.MethodPost, "/plans/"+url.PathEscape(ct.String()), body, &plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// ListPlans returns every saved plan, newest first, optionally filtered by name.
func (c *Client) ListPlans(ctx context.Context, token, search string) ([]Plan, error) {
	path := "/plans"
	if search = strings.TrimSpace(search); search != "" {
		path += "?q=" + url.QueryEscape(search)
	}
	var plans []Plan
	if err := c.do(ctx, token, http.MethodGet, path, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// DeletePlan removes one saved plan.
func (c *Client) DeletePlan(ctx context.Context, token string, ct coach.ChatType, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/plans/"+url.PathEscape(ct.String())+"/"+url.PathEscape(id), nil, nil)
}

/* ====================================================================
                             Transport
==================================================================== */

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). Non-2xx responses become *APIError; anything that fails before a
// response arrives is returned wrapped.
func (c *Client) do(ctx context.Context, token, method, path string, in, out any) error {
	if strings.TrimSpace(token) == "" {
		return ErrNoSession
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("fitclient: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("fitclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fitclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("fitclient: read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil {
			apiErr.Message = strings.TrimSpace(errBody.Error)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("fitclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

// StaticToken is a bearer token read once from configuration.
type StaticToken string

// Token returns the token, or ErrNoSession when it is blank.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoSession
	}
	return strings.TrimSpace(string(t)), nil
}
