// Package protocol defines the API request/response types shared by the
// server and the client.
package protocol

import (
	"encoding/json"

	"github.com/CageChen/oxygen/internal/markdown"
	"github.com/CageChen/oxygen/internal/storage"
)

// ClientID identifies a calling client.
type ClientID struct {
	UUID string `json:"uuid"`
}

// RegResponse is returned by POST /api/register and the Register RPC.
type RegResponse struct {
	Msg        string `json:"msg"`
	Successful bool   `json:"successful"`
}

// CollectionRequest selects one collection.
type CollectionRequest struct {
	ClientID     *ClientID `json:"client_id"`
	CollectionID uint64    `json:"collection_id"`
}

// CollectionResponse is returned by the collection listing and lookup calls.
// A lookup returns exactly one entry.
type CollectionResponse struct {
	Successful  bool                 `json:"successful"`
	Collections []storage.Collection `json:"collections"`
}

// FileRequest selects one file.
type FileRequest struct {
	ClientID *ClientID `json:"client_id"`
	FileID   uint64    `json:"file_id"`
}

// FileResponse is returned by GET /api/files/{id}
type FileResponse struct {
	Successful bool         `json:"successful"`
	File       storage.File `json:"file"`
}

// FileContent carries the raw bytes of a file. Body is base64 in JSON.
type FileContent struct {
	Body []byte `json:"body"`
}

// RenderResponse is returned by GET /api/files/{id}/render
type RenderResponse struct {
	File  storage.File       `json:"file"`
	Title string             `json:"title"`
	HTML  string             `json:"html"`
	TOC   []markdown.Heading `json:"toc"`
}

// Error codes used in ErrorResponse and RPCError.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
	CodeUnimplemented   = "unimplemented"
	CodeNotFoundRoute   = "not_found_route"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RPC method names accepted on the WebSocket channel.
const (
	MethodRegister           = "Register"
	MethodListAllCollections = "ListAllCollections"
	MethodGetCollection      = "GetCollection"
	MethodGetFile            = "GetFile"
	MethodGetFileContent     = "GetFileContent"
)

// RPCRequest is one call frame sent over /api/rpc.
type RPCRequest struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RPCResponse answers the RPCRequest with the same ID. Exactly one of Result
// and Error is set.
type RPCResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is a failed call.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Code + ": " + e.Message
}
