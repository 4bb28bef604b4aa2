package main

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionManager keeps one MCP server instance per client session.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*mcp.Server
	appServer *AppServer
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(appServer *AppServer) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*mcp.Server),
		appServer: appServer,
	}
}

// GetOrCreateSession returns the MCP server for sessionID, creating it on
// first use.
func (sm *SessionManager) GetOrCreateSession(sessionID string) *mcp.Server {
	sm.mu.RLock()
	server, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if exists {
		return server
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Re-check under the write lock.
	if server, exists = sm.sessions[sessionID]; exists {
		return server
	}

	server = InitMCPServer(sm.appServer)
	sm.sessions[sessionID] = server

	return server
}

// RemoveSession drops the MCP server for sessionID.
func (sm *SessionManager) RemoveSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}
