package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupRoutes configures the gin router.
func setupRoutes(appServer *AppServer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", healthHandler)

	// MCP endpoint, one server instance per session.
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			sessionID := r.Header.Get("X-Session-Id")
			if sessionID == "" {
				sessionID = r.RemoteAddr
			}
			return appServer.sessionManager.GetOrCreateSession(sessionID)
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true,
		},
	)
	router.POST("/mcp", gin.WrapH(mcpHandler))
	router.POST("/mcp/*path", gin.WrapH(mcpHandler))

	api := router.Group("/api/v1")
	{
		api.GET("/process", appServer.processVideoHandler)
		api.POST("/announce", appServer.announceHandler)
	}

	return router
}

// corsMiddleware allows cross-origin calls from dashboard frontends.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Session-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
