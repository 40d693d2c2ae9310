package handler

import (
	"net/http"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/CageChen/oxygen/internal/storage"
	"github.com/gin-gonic/gin"
)

// CollectionHandler handles collection API requests
type CollectionHandler struct {
	svc *Service
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(svc *Service) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// ListAll returns every collection, nested ones included
func (h *CollectionHandler) ListAll(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListAllCollections(clientID(c)))
}

// Get returns one collection with its subtree expanded
func (h *CollectionHandler) Get(c *gin.Context) {
	id, ok := handleID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetCollection(protocol.CollectionRequest{ClientID: clientID(c), CollectionID: id})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statsResponse is the body of GET /api/stats
type statsResponse struct {
	storage.Stats
	RegisteredClients int `json:"registered_clients"`
}

// Stats returns index and registry counts
func (h *CollectionHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		Stats:             h.svc.Store().Stats(),
		RegisteredClients: h.svc.Clients().Len(),
	})
}
