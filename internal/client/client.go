package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmind/internal/apperr"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// TokenFunc returns the bearer credential of the current session, or "" when signed out.
type TokenFunc func() string

// Client calls the remote TaskMind auth and to-do endpoints.
type Client struct {
	baseURL    string
	todoPrefix string
	httpClient *http.Client
	token      TokenFunc
	logger     *slog.Logger
}

// New constructs a client for the API at baseURL. todoPrefix is prepended to
// the to-do endpoints ("/api/todo" or "" for the bare style).
func New(baseURL, todoPrefix string, timeout time.Duration, token TokenFunc, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		todoPrefix: strings.TrimRight(todoPrefix, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		logger:     logger,
	}
}

// bearer returns the Authorization header value or ErrUnauthorized when there is no credential.
func (c *Client) bearer(op string) (string, error) {
	token := strings.TrimSpace(c.token())
	if token == "" {
		return "", fmt.Errorf("%s: %w: no credential", op, apperr.ErrUnauthorized)
	}
	return "Bearer " + token, nil
}

// do sends a JSON request and decodes a successful response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path, auth string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote call failed", slog.String("op", op), slog.String("request_id", requestID), slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("remote call",
		slog.String("op", op),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := remoteMessage(resp.Body)
		kind := apperr.ErrServer
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = apperr.ErrUnauthorized
		}
		if msg == "" {
			return fmt.Errorf("%s: %w: status %d", op, kind, resp.StatusCode)
		}
		return fmt.Errorf("%s: %w: status %d: %s", op, kind, resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w: malformed response: %v", op, apperr.ErrServer, err)
	}
	return nil
}

// remoteMessage extracts the "message" or "error" field of an error body.
func remoteMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
