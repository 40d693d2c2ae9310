package handler

import (
	"strconv"

	"github.com/CageChen/oxygen/internal/protocol"
	"github.com/gin-gonic/gin"
)

const (
	clientIDKey    = "client_id"
	clientIDHeader = "X-Client-Id"
)

// identifyClient stores the caller's client id, if any, in the context. The
// query parameter wins over the header.
func identifyClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query(clientIDKey)
		if id == "" {
			id = c.GetHeader(clientIDHeader)
		}
		if id != "" {
			c.Set(clientIDKey, id)
		}
		c.Next()
	}
}

// requireClient rejects requests that carry no client id.
func requireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(clientIDKey) == "" {
			abortWithError(c, errMissingClient)
			return
		}
		c.Next()
	}
}

func clientID(c *gin.Context) *protocol.ClientID {
	id := c.GetString(clientIDKey)
	if id == "" {
		return nil
	}
	return &protocol.ClientID{UUID: id}
}

// handleID parses the :id path parameter.
func handleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, invalidArgument("invalid id: "+c.Param("id"), err))
		return 0, false
	}
	return id, true
}

func abortWithError(c *gin.Context, err error) {
	e := toError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.HTTPStatus(), protocol.ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	})
}

// NoRoute answers requests for unknown routes.
func NoRoute(c *gin.Context) {
	abortWithError(c, &Error{Code: protocol.CodeNotFoundRoute, Message: "route not found: " + c.Request.URL.Path})
}
