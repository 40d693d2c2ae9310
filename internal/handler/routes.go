package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes registers the API on api, which is normally the /api group.
func Routes(api *gin.RouterGroup, svc *Service, maxInflight int) {
	collections := NewCollectionHandler(svc)
	files := NewFileHandler(svc)
	clients := NewClientHandler(svc)
	rpc := NewRPCHandler(svc, maxInflight)

	api.Use(identifyClient())

	api.POST("/register", clients.Register)
	api.GET("/collections", collections.ListAll)
	api.GET("/stats", collections.Stats)
	api.GET("/rpc", rpc.HandleWS)

	scoped := api.Group("", requireClient())
	{
		scoped.GET("/collections/:id", collections.Get)
		scoped.GET("/files/:id", files.Get)
		scoped.GET("/files/:id/content", files.GetContent)
		scoped.GET("/files/:id/render", files.Render)
		scoped.GET("/raw/:id", files.GetRaw)
	}
}

// Health reports that the server is up.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
