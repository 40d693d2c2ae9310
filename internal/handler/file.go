package handler

import (
	"net/http"

	"github.com/CageChen/oxygen/internal/metrics"
	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/gin-gonic/gin"
)

// FileHandler handles file API requests
type FileHandler struct {
	svc *Service
}

// NewFileHandler creates a new file handler
func NewFileHandler(svc *Service) *FileHandler {
	return &FileHandler{svc: svc}
}

func (h *FileHandler) request(c *gin.Context) (protocol.FileRequest, bool) {
	id, ok := handleID(c)
	if !ok {
		return protocol.FileRequest{}, false
	}
	return protocol.FileRequest{ClientID: clientID(c), FileID: id}, true
}

// Get returns the file entry
func (h *FileHandler) Get(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetFile(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetContent returns the file bytes wrapped in JSON
func (h *FileHandler) GetContent(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetFileContent(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRaw streams the raw markdown content
func (h *FileHandler) GetRaw(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	rc, size, err := h.svc.OpenContent(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer func() { _ = rc.Close() }()

	c.DataFromReader(http.StatusOK, size, "text/markdown; charset=utf-8", rc, nil)
	metrics.RecordContentServed(int64(c.Writer.Size()))
}

// Render returns the rendered HTML and table of contents
func (h *FileHandler) Render(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	resp, err := h.svc.RenderFile(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
