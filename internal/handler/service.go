// Package handler provides the HTTP and WebSocket API of the server.
//
// Service is the single entry point into the index for both transports. It
// validates the caller's client id before touching the store and translates
// storage errors into API error codes.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/CageChen/oxygen/internal/logging"
	"github.com/CageChen/oxygen/internal/markdown"
	"github.com/CageChen/oxygen/internal/metrics"
	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/CageChen/oxygen/internal/registry"
	"github.com/CageChen/oxygen/internal/storage"
	"go.uber.org/zap"
)

// Error is a failed API call.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code used for e on the HTTP API.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case protocol.CodeInvalidArgument:
		return http.StatusBadRequest
	case protocol.CodeUnimplemented:
		return http.StatusNotImplemented
	case protocol.CodeNotFoundRoute:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func invalidArgument(msg string, err error) *Error {
	return &Error{Code: protocol.CodeInvalidArgument, Message: msg, Err: err}
}

var errMissingClient = invalidArgument("missing client identifier", nil)

// toError maps any error to an *Error. Lookup failures are the caller's
// fault; everything else is internal.
func toError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	code, ok := storage.CodeOf(err)
	if ok && (code == storage.ErrNotFound || code == storage.ErrTypeMismatch) {
		return invalidArgument(err.Error(), err)
	}
	return &Error{Code: protocol.CodeInternal, Message: err.Error(), Err: err}
}

// Service serves the index to API callers.
type Service struct {
	store    *storage.Store
	clients  *registry.Registry
	renderer *markdown.Renderer
}

// NewService creates a service over an already built store.
func NewService(store *storage.Store, clients *registry.Registry, renderer *markdown.Renderer) *Service {
	return &Service{store: store, clients: clients, renderer: renderer}
}

// Store returns the underlying store.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Clients returns the client registry.
func (s *Service) Clients() *registry.Registry {
	return s.clients
}

// checkClient rejects calls without a client id and refreshes the last-seen
// time of registered ones.
func (s *Service) checkClient(id *protocol.ClientID) error {
	if id == nil || id.UUID == "" {
		return errMissingClient
	}
	s.clients.Touch(id.UUID)
	return nil
}

// Register records the client and acknowledges it.
func (s *Service) Register(req protocol.ClientID) (protocol.RegResponse, error) {
	c, err := s.clients.Register(req.UUID)
	if err != nil {
		return protocol.RegResponse{}, invalidArgument(err.Error(), err)
	}
	metrics.SetRegisteredClients(s.clients.Len())
	logging.L().Info("client registered",
		zap.String("client_id", c.ID.String()),
		zap.Int("registrations", c.Registrations),
	)
	return protocol.RegResponse{Msg: "Received: " + c.ID.String(), Successful: true}, nil
}

// ListAllCollections returns one collection per indexed directory. The
// client id is optional.
func (s *Service) ListAllCollections(id *protocol.ClientID) protocol.CollectionResponse {
	if id != nil && id.UUID != "" {
		s.clients.Touch(id.UUID)
	}
	return protocol.CollectionResponse{Successful: true, Collections: s.store.Collections()}
}

// GetCollection returns the collection with the requested id.
func (s *Service) GetCollection(req protocol.CollectionRequest) (protocol.CollectionResponse, error) {
	if err := s.checkClient(req.ClientID); err != nil {
		return protocol.CollectionResponse{}, err
	}
	col, err := s.store.Collection(req.CollectionID)
	if err != nil {
		return protocol.CollectionResponse{}, toError(err)
	}
	return protocol.CollectionResponse{Successful: true, Collections: []storage.Collection{col}}, nil
}

// GetFile returns the file with the requested id.
func (s *Service) GetFile(req protocol.FileRequest) (protocol.FileResponse, error) {
	if err := s.checkClient(req.ClientID); err != nil {
		return protocol.FileResponse{}, err
	}
	f, err := s.store.File(req.FileID)
	if err != nil {
		return protocol.FileResponse{}, toError(err)
	}
	return protocol.FileResponse{Successful: true, File: f}, nil
}

// GetFileContent returns the current bytes of the requested file.
func (s *Service) GetFileContent(req protocol.FileRequest) (protocol.FileContent, error) {
	if err := s.checkClient(req.ClientID); err != nil {
		return protocol.FileContent{}, err
	}
	body, err := s.store.ReadContent(req.FileID)
	if err != nil {
		return protocol.FileContent{}, toError(err)
	}
	metrics.RecordContentServed(int64(len(body)))
	return protocol.FileContent{Body: body}, nil
}

// OpenContent opens the requested file for streaming.
func (s *Service) OpenContent(req protocol.FileRequest) (io.ReadCloser, int64, error) {
	if err := s.checkClient(req.ClientID); err != nil {
		return nil, 0, err
	}
	rc, size, err := s.store.OpenContent(req.FileID)
	if err != nil {
		return nil, 0, toError(err)
	}
	return rc, size, nil
}

// RenderFile renders the requested file as HTML with a table of contents.
func (s *Service) RenderFile(req protocol.FileRequest) (protocol.RenderResponse, error) {
	if err := s.checkClient(req.ClientID); err != nil {
		return protocol.RenderResponse{}, err
	}
	f, err := s.store.File(req.FileID)
	if err != nil {
		return protocol.RenderResponse{}, toError(err)
	}
	body, err := s.store.ReadContent(req.FileID)
	if err != nil {
		return protocol.RenderResponse{}, toError(err)
	}
	doc, err := s.renderer.Render(body)
	if err != nil {
		return protocol.RenderResponse{}, toError(err)
	}
	metrics.RecordContentServed(int64(len(body)))

	title := doc.Title
	if title == "" {
		title = f.Name
	}
	return protocol.RenderResponse{File: f, Title: title, HTML: doc.HTML, TOC: doc.TOC}, nil
}
