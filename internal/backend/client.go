// Package backend sends queued actions to the remote report API.
package backend

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

	"github.com/matheus3301/floodline/internal/logging"
	"github.com/matheus3301/floodline/internal/queue"
	"go.uber.org/zap"
)

// ErrMissingID is returned for update/delete payloads without an "id" field.
var ErrMissingID = errors.New("payload has no id")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Client maps action kinds onto REST calls against BaseURL:
// report → POST /reports, update → PATCH /reports/{id}, delete → DELETE /reports/{id}.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logging.OrNop(logger),
	}
}

// Dispatch performs the remote operation for a. Every error is recoverable
// from the synchronizer's point of view.
func (c *Client) Dispatch(ctx context.Context, a queue.Action) error {
	method, target, err := c.route(a)
	if err != nil {
		return err
	}

	var body io.Reader
	if a.Kind != queue.KindDelete {
		body = bytes.NewReader(a.Payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Idempotency-Key", a.ID)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("action dispatched", zap.String("id", a.ID), zap.String("method", method), zap.String("url", target))
	return nil
}

func (c *Client) route(a queue.Action) (method, target string, err error) {
	collection := c.baseURL + "/reports"
	switch a.Kind {
	case queue.KindReport:
		return http.MethodPost, collection, nil
	case queue.KindUpdate, queue.KindDelete:
		id, err := payloadID(a.Payload)
		if err != nil {
			return "", "", err
		}
		method := http.MethodPatch
		if a.Kind == queue.KindDelete {
			method = http.MethodDelete
		}
		return method, collection + "/" + url.PathEscape(id), nil
	}
	return "", "", fmt.Errorf("%w: %q", queue.ErrUnknownKind, a.Kind)
}

func payloadID(payload json.RawMessage) (string, error) {
	var p struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || len(p.ID) == 0 || string(p.ID) == "null" {
		return "", ErrMissingID
	}
	var s string
	if err := json.Unmarshal(p.ID, &s); err == nil {
		if s == "" {
			return "", ErrMissingID
		}
		return s, nil
	}
	// Numeric ids are used as written.
	return string(p.ID), nil
}
