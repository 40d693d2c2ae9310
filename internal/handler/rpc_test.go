package handler

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/CageChen/oxygen/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDispatch(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewRPCHandler(svc, 1)
	client := &protocol.ClientID{UUID: testClient}

	resp := h.Dispatch(protocol.RPCRequest{ID: 7, Method: protocol.MethodListAllCollections})
	require.Nil(t, resp.Error)
	assert.Equal(t, uint64(7), resp.ID)
	var all protocol.CollectionResponse
	require.NoError(t, json.Unmarshal(resp.Result, &all))
	assert.Len(t, all.Collections, 2)

	resp = h.Dispatch(protocol.RPCRequest{
		ID:     8,
		Method: protocol.MethodGetFile,
		Params: params(t, protocol.FileRequest{ClientID: client, FileID: 0}),
	})
	require.Nil(t, resp.Error)
	var file protocol.FileResponse
	require.NoError(t, json.Unmarshal(resp.Result, &file))
	assert.Equal(t, storage.File{Name: "a.md", ID: 0}, file.File)

	resp = h.Dispatch(protocol.RPCRequest{
		ID:     9,
		Method: protocol.MethodGetFileContent,
		Params: params(t, protocol.FileRequest{ClientID: client, FileID: 1}),
	})
	require.Nil(t, resp.Error)
	var content protocol.FileContent
	require.NoError(t, json.Unmarshal(resp.Result, &content))
	assert.Equal(t, "beta", string(content.Body))
}

func TestDispatch_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewRPCHandler(svc, 1)
	client := &protocol.ClientID{UUID: testClient}

	tests := []struct {
		name string
		req  protocol.RPCRequest
		code string
	}{
		{
			name: "missing client",
			req:  protocol.RPCRequest{Method: protocol.MethodGetCollection, Params: params(t, protocol.CollectionRequest{CollectionID: 2})},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "no params",
			req:  protocol.RPCRequest{Method: protocol.MethodGetFile},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "collection on file",
			req:  protocol.RPCRequest{Method: protocol.MethodGetCollection, Params: params(t, protocol.CollectionRequest{ClientID: client, CollectionID: 0})},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "file on collection",
			req:  protocol.RPCRequest{Method: protocol.MethodGetFileContent, Params: params(t, protocol.FileRequest{ClientID: client, FileID: 3})},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "bad params",
			req:  protocol.RPCRequest{Method: protocol.MethodGetFile, Params: json.RawMessage(`{"file_id":"x"}`)},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "bad uuid",
			req:  protocol.RPCRequest{Method: protocol.MethodRegister, Params: params(t, protocol.ClientID{UUID: "x"})},
			code: protocol.CodeInvalidArgument,
		},
		{
			name: "unknown method",
			req:  protocol.RPCRequest{Method: "DeleteEverything"},
			code: protocol.CodeUnimplemented,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Dispatch(tt.req)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func dialRPC(t *testing.T, svc *Service) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(svc))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rpc"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

func TestRPC_WebSocket(t *testing.T) {
	svc, _ := newTestService(t)
	conn := dialRPC(t, svc)
	client := &protocol.ClientID{UUID: testClient}

	calls := []protocol.RPCRequest{
		{ID: 1, Method: protocol.MethodRegister, Params: params(t, client)},
		{ID: 2, Method: protocol.MethodListAllCollections, Params: params(t, client)},
		{ID: 3, Method: protocol.MethodGetCollection, Params: params(t, protocol.CollectionRequest{ClientID: client, CollectionID: 2})},
		{ID: 4, Method: protocol.MethodGetFileContent, Params: params(t, protocol.FileRequest{ClientID: client, FileID: 0})},
		{ID: 5, Method: protocol.MethodGetFile, Params: params(t, protocol.FileRequest{ClientID: client, FileID: 99})},
	}
	for _, c := range calls {
		require.NoError(t, conn.WriteJSON(c))
	}

	got := make(map[uint64]protocol.RPCResponse)
	for range calls {
		var resp protocol.RPCResponse
		require.NoError(t, conn.ReadJSON(&resp))
		got[resp.ID] = resp
	}
	require.Len(t, got, len(calls))

	var reg protocol.RegResponse
	require.NoError(t, json.Unmarshal(got[1].Result, &reg))
	assert.Equal(t, "Received: "+testClient, reg.Msg)

	var col protocol.CollectionResponse
	require.NoError(t, json.Unmarshal(got[3].Result, &col))
	require.Len(t, col.Collections, 1)
	assert.Equal(t, "sub", col.Collections[0].Name)

	assert.Nil(t, got[4].Error)
	require.NotNil(t, got[5].Error)
	assert.Equal(t, protocol.CodeInvalidArgument, got[5].Error.Code)
}

func TestRPC_MalformedFrame(t *testing.T) {
	svc, _ := newTestService(t)
	conn := dialRPC(t, svc)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var resp protocol.RPCResponse
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInvalidArgument, resp.Error.Code)

	// The connection stays usable.
	require.NoError(t, conn.WriteJSON(protocol.RPCRequest{ID: 2, Method: protocol.MethodListAllCollections}))
	var next protocol.RPCResponse
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint64(2), next.ID)
	assert.Nil(t, next.Error)
}

func TestRPC_OversizedFrameClosesConnection(t *testing.T) {
	svc, _ := newTestService(t)
	conn := dialRPC(t, svc)

	// The write may already fail if the server has dropped the connection.
	_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 2*maxFrameSize)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, websocket.CloseMessageTooBig, closeErr.Code)
	}
}
