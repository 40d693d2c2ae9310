package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/CageChen/oxygen/internal/logging"
	"github.com/CageChen/oxygen/internal/metrics"
	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// maxFrameSize caps one inbound RPC frame. A larger frame closes the
// connection.
const maxFrameSize = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins, the API has no authentication
	},
}

// RPCHandler serves the request/response channel on a WebSocket. Calls on one
// connection run concurrently, at most maxInflight at a time, and responses
// may arrive out of order; callers match them by id.
type RPCHandler struct {
	svc         *Service
	maxInflight int
}

// NewRPCHandler creates a new RPC handler
func NewRPCHandler(svc *Service, maxInflight int) *RPCHandler {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &RPCHandler{svc: svc, maxInflight: maxInflight}
}

// rpcConn serializes writes to one connection.
type rpcConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (rc *rpcConn) write(resp protocol.RPCResponse) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err := rc.conn.WriteJSON(resp); err != nil {
		logging.L().Debug("rpc write failed", zap.Uint64("id", resp.ID), zap.Error(err))
	}
}

// HandleWS upgrades the connection and serves calls until the peer closes it
func (h *RPCHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxFrameSize)
	rc := &rpcConn{conn: conn}
	p := pool.New().WithMaxGoroutines(h.maxInflight)
	defer func() {
		p.Wait()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.L().Debug("rpc connection closed", zap.Error(err))
			}
			return
		}

		var req protocol.RPCRequest
		if err := json.Unmarshal(data, &req); err != nil {
			metrics.RecordRPCCall("malformed", protocol.CodeInvalidArgument)
			rc.write(protocol.RPCResponse{Error: &protocol.RPCError{
				Code:    protocol.CodeInvalidArgument,
				Message: "malformed request: " + err.Error(),
			}})
			continue
		}
		p.Go(func() {
			rc.write(h.Dispatch(req))
		})
	}
}

// Dispatch runs one call and builds its response
func (h *RPCHandler) Dispatch(req protocol.RPCRequest) protocol.RPCResponse {
	result, err := h.call(req)
	resp := protocol.RPCResponse{ID: req.ID}

	label := req.Method
	if err == nil {
		resp.Result, err = json.Marshal(result)
	}
	if err != nil {
		e := toError(err)
		resp.Result = nil
		resp.Error = &protocol.RPCError{Code: e.Code, Message: e.Message}
		if e.Code == protocol.CodeUnimplemented {
			label = "unknown"
		}
		metrics.RecordRPCCall(label, e.Code)
		logging.L().Debug("rpc call failed",
			zap.Uint64("id", req.ID),
			zap.String("method", req.Method),
			zap.String("code", e.Code),
			zap.String("error", e.Message),
		)
		return resp
	}
	metrics.RecordRPCCall(label, "ok")
	return resp
}

func (h *RPCHandler) call(req protocol.RPCRequest) (any, error) {
	switch req.Method {
	case protocol.MethodRegister:
		var p protocol.ClientID
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.svc.Register(p)

	case protocol.MethodListAllCollections:
		var p protocol.ClientID
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.svc.ListAllCollections(&p), nil

	case protocol.MethodGetCollection:
		var p protocol.CollectionRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.svc.GetCollection(p)

	case protocol.MethodGetFile:
		var p protocol.FileRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.svc.GetFile(p)

	case protocol.MethodGetFileContent:
		var p protocol.FileRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return h.svc.GetFileContent(p)

	default:
		return nil, &Error{
			Code:    protocol.CodeUnimplemented,
			Message: fmt.Sprintf("unknown method %q", req.Method),
		}
	}
}

// decodeParams fills v from raw. Absent params leave v zero.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalidArgument("invalid params: "+err.Error(), err)
	}
	return nil
}
