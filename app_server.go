package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// AppServer bundles the crawler service with its HTTP and MCP frontends.
type AppServer struct {
	crawlerService *CrawlerService
	webhookSender  *WebhookSender
	sessionManager *SessionManager
	mcpServer      *mcp.Server
	router         *gin.Engine
	httpServer     *http.Server
}

// NewAppServer creates the application server around an assembled service.
func NewAppServer(crawlerService *CrawlerService) *AppServer {
	appServer := &AppServer{
		crawlerService: crawlerService,
		webhookSender:  NewWebhookSender(),
	}

	// Tool registration needs the appServer, so these come last.
	appServer.mcpServer = InitMCPServer(appServer)
	appServer.sessionManager = NewSessionManager(appServer)

	return appServer
}

// Start serves HTTP on port until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *AppServer) Start(port string) error {
	s.router = setupRoutes(s)

	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.router,
	}

	go func() {
		logrus.Infof("starting HTTP server on %s", port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logrus.Warnf("timed out waiting for connections to close: %v", err)
	} else {
		logrus.Info("server stopped cleanly")
	}

	return nil
}
