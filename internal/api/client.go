// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the gemstudio backend: conversation
// CRUD, file upload, and the streamed generation endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is where the backend listens when run locally.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout bounds non-streaming JSON calls.
	DefaultTimeout = 30 * time.Second

	// UploadTimeout bounds multipart uploads, which can carry large images.
	UploadTimeout = 2 * time.Minute

	// MaxResponseSize caps non-streaming response bodies.
	MaxResponseSize = 16 * 1024 * 1024

	// mutationRate paces mutating calls so rapid-fire deletes cannot
	// outrun the backend's index bookkeeping.
	mutationRate  = rate.Limit(10)
	mutationBurst = 5
)

// Error variables for common backend failures.
var (
	// ErrConversationNotFound indicates the conversation id is unknown.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrIndexOutOfRange indicates a message index delete was rejected.
	ErrIndexOutOfRange = errors.New("message index out of range")

	// ErrEmptyRequest indicates the backend rejected a generation request
	// with no prompt and no files.
	ErrEmptyRequest = errors.New("prompt or files required")
)

// StreamError wraps a transport failure that interrupted a generation
// stream, preserving how much content had arrived.
type StreamError struct {
	Received int // frames delivered before the failure
	Err      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("stream interrupted after %d frames: %v", e.Received, e.Err)
	}
	return fmt.Sprintf("stream failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one gemstudio backend.
type Client struct {
	baseURL string

	// jsonClient serves bounded request/response calls.
	jsonClient *http.Client

	// streamClient serves generation streams. No client timeout; lifetime
	// is controlled by the request context.
	streamClient *http.Client

	// limiter paces mutating calls.
	limiter *rate.Limiter
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// PERFORMANCE: Connection pooling shared across calls.
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		jsonClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
		limiter: rate.NewLimiter(mutationRate, mutationBurst),
	}
}

// BaseURL returns the backend address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolvePath turns a server-relative file path (/generated/x.png) into a
// full URL.
func (c *Client) ResolvePath(p string) string {
	if p == "" || strings.Contains(p, "://") {
		return p
	}
	return c.baseURL + p
}

// =============================================================================
// CONVERSATION CRUD
// =============================================================================

// ListConversations fetches all conversations, most recent first, with full
// message lists.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := c.getJSON(ctx, "/api/conversations", &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetConversation fetches a single conversation by id.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := c.getJSON(ctx, "/api/conversations/"+url.PathEscape(id), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation asks the backend to create a fresh conversation and
// returns it.
func (c *Client) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateConversation applies a partial update and returns the backend's
// post-update view of the conversation.
func (c *Client) UpdateConversation(ctx context.Context, id string, patch ConversationPatch) (*model.Conversation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var conv model.Conversation
	err := c.doJSON(ctx, http.MethodPut, "/api/conversations/"+url.PathEscape(id), patch, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, nil)
}

// DeleteMessage removes the message at index and returns the backend's
// corrected message list. Index semantics are owned by the backend; callers
// must re-index from the result rather than shifting locally.
func (c *Client) DeleteMessage(ctx context.Context, id string, index int) (*DeleteMessageResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	path := "/api/conversations/" + url.PathEscape(id) + "/messages/" + strconv.Itoa(index)
	var result DeleteMessageResult
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	if !result.Success && result.Error != "" {
		return &result, fmt.Errorf("%w: %s", ErrIndexOutOfRange, result.Error)
	}
	return &result, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload sends a local file to the backend and returns the stored FileRef.
func (c *Client) Upload(ctx context.Context, localPath string) (model.FileRef, error) {
	var ref model.FileRef

	f, err := os.Open(localPath)
	if err != nil {
		return ref, err
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return ref, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return ref, err
	}
	if err := writer.Close(); err != nil {
		return ref, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return ref, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-ID", uuid.NewString())

	client := &http.Client{
		Transport: c.jsonClient.Transport,
		Timeout:   UploadTimeout,
	}
	resp, err := client.Do(req)
	if err != nil {
		return ref, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return ref, err
	}
	if resp.StatusCode != http.StatusOK {
		return ref, decodeError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, &ref); err != nil {
		return ref, fmt.Errorf("upload response: %w", err)
	}
	if ref.Filename == "" {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		if eb.Error != "" {
			return ref, errors.New(eb.Error)
		}
		return ref, errors.New("upload failed")
	}
	return ref, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// HistoryCap is the maximum number of trailing messages attached as context
// memory, bounding request payload size (three exchanges).
const HistoryCap = 6

// BuildHistory converts the tail of a message list into request history
// entries, capped at HistoryCap.
func BuildHistory(messages []model.Message) []HistoryEntry {
	if len(messages) == 0 {
		return nil
	}
	start := 0
	if len(messages) > HistoryCap {
		start = len(messages) - HistoryCap
	}
	entries := make([]HistoryEntry, 0, len(messages)-start)
	for _, m := range messages[start:] {
		entries = append(entries, HistoryEntry{
			Role:  m.Role.String(),
			Text:  m.Text,
			Image: m.Image,
		})
	}
	return entries
}

// Generate POSTs a generation request to the mode's endpoint and feeds each
// decoded frame to onFrame. It returns once the stream ends: nil after a
// terminal frame or clean EOF, a *StreamError if transport failed mid-way.
func (c *Client) Generate(ctx context.Context, mode model.Mode, genReq GenerateRequest, onFrame FrameCallback) error {
	payload, err := json.Marshal(genReq)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mode.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return &StreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return decodeError(resp.StatusCode, data)
	}

	received := 0
	err = decodeFrames(ctx, resp.Body, func(f Frame) {
		received++
		onFrame(f)
	})
	if err != nil {
		return &StreamError{Received: received, Err: err}
	}
	return nil
}

// FetchOptions retrieves the option lists the backend accepts.
func (c *Client) FetchOptions(ctx context.Context) (*Options, error) {
	var opts Options
	if err := c.getJSON(ctx, "/api/config", &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (skipped when out is nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Correlation id for backend request logs.
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.jsonClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps a non-2xx response onto a client error, preferring the
// backend's own message when the body carries one.
func decodeError(status int, data []byte) error {
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		if status == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrConversationNotFound, eb.Error)
		}
		return errors.New(eb.Error)
	}
	if status == http.StatusNotFound {
		return ErrConversationNotFound
	}
	return fmt.Errorf("backend returned HTTP %d", status)
}
