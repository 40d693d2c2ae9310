// Package client talks to an oxygen server over its HTTP API or its
// WebSocket RPC channel.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/CageChen/oxygen/internal/storage"
)

// API is the set of calls available on both transports.
type API interface {
	Register(ctx context.Context) (protocol.RegResponse, error)
	ListAllCollections(ctx context.Context) ([]storage.Collection, error)
	GetCollection(ctx context.Context, id uint64) (storage.Collection, error)
	GetFile(ctx context.Context, id uint64) (storage.File, error)
	GetFileContent(ctx context.Context, id uint64) ([]byte, error)
}

// APIError is an error reported by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// Client calls the HTTP API.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// ClientID returns the id sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var er protocol.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &er); err == nil && er.Code != "" {
		apiErr.Code = er.Code
		apiErr.Message = er.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func idPath(prefix string, id uint64, suffix string) string {
	return prefix + strconv.FormatUint(id, 10) + suffix
}

// Register registers the client id with the server.
func (c *Client) Register(ctx context.Context) (protocol.RegResponse, error) {
	var resp protocol.RegResponse
	err := c.do(ctx, http.MethodPost, "/api/register", protocol.ClientID{UUID: c.clientID}, &resp)
	return resp, err
}

// ListAllCollections fetches one collection per indexed directory.
func (c *Client) ListAllCollections(ctx context.Context) ([]storage.Collection, error) {
	var resp protocol.CollectionResponse
	if err := c.do(ctx, http.MethodGet, "/api/collections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// GetCollection fetches one collection.
func (c *Client) GetCollection(ctx context.Context, id uint64) (storage.Collection, error) {
	var resp protocol.CollectionResponse
	if err := c.do(ctx, http.MethodGet, idPath("/api/collections/", id, ""), nil, &resp); err != nil {
		return storage.Collection{}, err
	}
	if len(resp.Collections) != 1 {
		return storage.Collection{}, fmt.Errorf("expected 1 collection, got %d", len(resp.Collections))
	}
	return resp.Collections[0], nil
}

// GetFile fetches one file entry.
func (c *Client) GetFile(ctx context.Context, id uint64) (storage.File, error) {
	var resp protocol.FileResponse
	err := c.do(ctx, http.MethodGet, idPath("/api/files/", id, ""), nil, &resp)
	return resp.File, err
}

// GetFileContent fetches the bytes of one file.
func (c *Client) GetFileContent(ctx context.Context, id uint64) ([]byte, error) {
	var resp protocol.FileContent
	if err := c.do(ctx, http.MethodGet, idPath("/api/files/", id, "/content"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Render fetches the rendered HTML of one file.
func (c *Client) Render(ctx context.Context, id uint64) (protocol.RenderResponse, error) {
	var resp protocol.RenderResponse
	err := c.do(ctx, http.MethodGet, idPath("/api/files/", id, "/render"), nil, &resp)
	return resp, err
}
