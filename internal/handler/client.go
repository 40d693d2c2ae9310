package handler

import (
	"net/http"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/gin-gonic/gin"
)

// ClientHandler handles client registration
type ClientHandler struct {
	svc *Service
}

// NewClientHandler creates a new client handler
func NewClientHandler(svc *Service) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// Register records the client named in the request body
func (h *ClientHandler) Register(c *gin.Context) {
	var req protocol.ClientID
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, invalidArgument("uuid is required", err))
		return
	}
	resp, err := h.svc.Register(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(clientIDKey, req.UUID)
	c.JSON(http.StatusOK, resp)
}
