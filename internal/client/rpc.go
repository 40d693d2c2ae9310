package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/CageChen/oxygen/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrClosed is returned for calls on a closed RPC connection.
var ErrClosed = errors.New("rpc connection closed")

// RPCClient multiplexes calls over one WebSocket connection. It is safe for
// concurrent use; responses are matched to calls by id.
type RPCClient struct {
	conn     *websocket.Conn
	clientID string

	writeMu sync.Mutex
	nextID  atomic.Uint64
	pending *xsync.MapOf[uint64, chan protocol.RPCResponse]

	done    chan struct{}
	readErr error
	once    sync.Once
}

// DialRPC connects to the RPC channel of the server at baseURL
// (http:// or https://).
func DialRPC(ctx context.Context, baseURL, clientID string) (*RPCClient, error) {
	url := strings.TrimSuffix(baseURL, "/") + "/api/rpc"
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &RPCClient{
		conn:     conn,
		clientID: clientID,
		pending:  xsync.NewMapOf[uint64, chan protocol.RPCResponse](),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *RPCClient) readLoop() {
	for {
		var resp protocol.RPCResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.shutdown(err)
			return
		}
		if ch, ok := c.pending.LoadAndDelete(resp.ID); ok {
			ch <- resp
		}
	}
}

func (c *RPCClient) shutdown(err error) {
	c.once.Do(func() {
		c.readErr = err
		close(c.done)
	})
}

// Close closes the connection. Pending calls fail with ErrClosed.
func (c *RPCClient) Close() error {
	c.shutdown(ErrClosed)
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

// Call invokes method with params and decodes the result into out.
func (c *RPCClient) Call(ctx context.Context, method string, params, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	id := c.nextID.Add(1)
	ch := make(chan protocol.RPCResponse, 1)
	c.pending.Store(id, ch)
	defer c.pending.Delete(id)

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	err = c.conn.WriteJSON(protocol.RPCRequest{ID: id, Method: method, Params: raw})
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return &APIError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		if out == nil {
			return nil
		}
		return json.Unmarshal(resp.Result, out)
	case <-c.done:
		if errors.Is(c.readErr, ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RPCClient) id() *protocol.ClientID {
	return &protocol.ClientID{UUID: c.clientID}
}

// Register registers the client id with the server.
func (c *RPCClient) Register(ctx context.Context) (protocol.RegResponse, error) {
	var resp protocol.RegResponse
	err := c.Call(ctx, protocol.MethodRegister, c.id(), &resp)
	return resp, err
}

// ListAllCollections fetches one collection per indexed directory.
func (c *RPCClient) ListAllCollections(ctx context.Context) ([]storage.Collection, error) {
	var resp protocol.CollectionResponse
	if err := c.Call(ctx, protocol.MethodListAllCollections, c.id(), &resp); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// GetCollection fetches one collection.
func (c *RPCClient) GetCollection(ctx context.Context, id uint64) (storage.Collection, error) {
	var resp protocol.CollectionResponse
	req := protocol.CollectionRequest{ClientID: c.id(), CollectionID: id}
	if err := c.Call(ctx, protocol.MethodGetCollection, req, &resp); err != nil {
		return storage.Collection{}, err
	}
	if len(resp.Collections) != 1 {
		return storage.Collection{}, fmt.Errorf("expected 1 collection, got %d", len(resp.Collections))
	}
	return resp.Collections[0], nil
}

// GetFile fetches one file entry.
func (c *RPCClient) GetFile(ctx context.Context, id uint64) (storage.File, error) {
	var resp protocol.FileResponse
	err := c.Call(ctx, protocol.MethodGetFile, protocol.FileRequest{ClientID: c.id(), FileID: id}, &resp)
	return resp.File, err
}

// GetFileContent fetches the bytes of one file.
func (c *RPCClient) GetFileContent(ctx context.Context, id uint64) ([]byte, error) {
	var resp protocol.FileContent
	if err := c.Call(ctx, protocol.MethodGetFileContent, protocol.FileRequest{ClientID: c.id(), FileID: id}, &resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

var (
	_ API = (*Client)(nil)
	_ API = (*RPCClient)(nil)
)
