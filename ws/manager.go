package ws

import (
	"sync"

	"schoolpay_backend/internal/logger"

	"log/slog"
)

// WebSocketManager tracks live portal connections keyed by user id. A user
// can hold several connections (two browser tabs), so each key maps to a set.
type WebSocketManager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			if manager.clients[client.UserID] == nil {
				manager.clients[client.UserID] = make(map[*Client]bool)
			}
			manager.clients[client.UserID][client] = true
			manager.mu.Unlock()
			logger.Debug("ws client registered", slog.String("user_id", client.UserID))

		case client := <-manager.unregister:
			manager.mu.Lock()
			if conns, ok := manager.clients[client.UserID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.Send)
				}
				if len(conns) == 0 {
					delete(manager.clients, client.UserID)
				}
			}
			manager.mu.Unlock()
			logger.Debug("ws client unregistered", slog.String("user_id", client.UserID))
		}
	}
}

// PushToUser delivers a payload to every live connection the user has. No-op
// when the user is offline; the notification row is already persisted so they
// will see it on next load.
func (manager *WebSocketManager) PushToUser(userID string, payload interface{}) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	for client := range manager.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			// Send buffer full, drop the connection.
			go func(c *Client) {
				manager.unregister <- c
			}(client)
		}
	}
}
