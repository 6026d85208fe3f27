// Package client talks to the assessment REST API on behalf of one
// authenticated organization. It implements the flow collaborators.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"digitalmaturity/internal/flow"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
)

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// UserMessage is the server message, suitable for display
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client wraps the REST API. The bearer token is fixed at construction.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	log        *logger.Logger
}

// New creates a client for baseURL (e.g. http://localhost:8080/api)
func New(baseURL, token string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		log:        log,
	}
}

// WithHTTPClient replaces the transport, used by tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

var (
	_ flow.CatalogSource = (*Client)(nil)
	_ flow.ProgressStore = (*Client)(nil)
	_ flow.Submitter     = (*Client)(nil)
)

// Login exchanges an access code and password for a token
func Login(ctx context.Context, baseURL, accessCode, password string) (*model.TokenResponse, error) {
	c := New(baseURL, "", nil)
	var out model.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", model.LoginRequest{AccessCode: accessCode, Password: password}, &out, false)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Level1Questions implements flow.CatalogSource
func (c *Client) Level1Questions(ctx context.Context) ([]model.Question, error) {
	var out []model.Question
	if err := c.do(ctx, http.MethodGet, "/questions", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// Level2Eligibility implements flow.CatalogSource
func (c *Client) Level2Eligibility(ctx context.Context) (*model.Eligibility, error) {
	var out model.Eligibility
	if err := c.do(ctx, http.MethodGet, "/questions-level2/check-eligibility", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Level2Questions implements flow.CatalogSource
func (c *Client) Level2Questions(ctx context.Context) ([]model.Level2Question, error) {
	var out model.Level2Catalog
	if err := c.do(ctx, http.MethodGet, "/questions-level2", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// CreateAssessment starts a new in-progress assessment
func (c *Client) CreateAssessment(ctx context.Context, level int) (*model.Assessment, error) {
	var out model.Assessment
	if err := c.do(ctx, http.MethodPost, "/assessments", model.CreateAssessmentRequest{Level: level}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadAssessment implements flow.ProgressStore
func (c *Client) LoadAssessment(ctx context.Context, assessmentID string) (*model.Assessment, error) {
	var out model.Assessment
	if err := c.do(ctx, http.MethodGet, "/assessments/"+assessmentID, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProgress implements flow.ProgressStore. Retrying is safe because the
// server ignores snapshots older than the stored one. A snapshot the server
// did not keep comes back as *flow.StaleSnapshotError, unless the stored
// sequence is our own (an earlier attempt landed).
func (c *Client) SaveProgress(ctx context.Context, assessmentID string, snap flow.Snapshot) error {
	body := model.SaveProgressRequest{Answers: snap.Answers, Seq: snap.Seq}
	var out model.SaveProgressResponse
	if err := c.do(ctx, http.MethodPut, "/assessments/"+assessmentID+"/save-progress", body, &out, true); err != nil {
		return err
	}
	if !out.Applied && out.Seq != snap.Seq {
		return &flow.StaleSnapshotError{StoredSeq: out.Seq}
	}
	return nil
}

// Submit implements flow.Submitter
func (c *Client) Submit(ctx context.Context, assessmentID string, answers []model.Answer) (*model.Assessment, error) {
	var out model.Assessment
	if err := c.do(ctx, http.MethodPost, "/assessments/"+assessmentID+"/submit", model.SubmitRequest{Answers: answers}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs a request; idempotent calls are retried on transport errors,
// 429 and 5xx responses with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, idempotent bool) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	attempts := 1
	if idempotent {
		attempts = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Debug("request failed", "method", method, "path", path, "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = decodeError(resp.StatusCode, body)
			continue
		}
		if resp.StatusCode >= 400 {
			return decodeError(resp.StatusCode, body)
		}
		if out == nil || len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, out)
	}
	return lastErr
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: status, Message: payload.Error}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}
