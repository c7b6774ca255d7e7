// Package notify delivers match notifications to participants over the two
// best-effort push channels: Redis pub/sub and a direct websocket connection.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WSManager tracks one websocket client per session id and pushes messages to
// connected sessions. Sessions without a live connection simply miss the push
// and discover their circle by polling.
// The mutex guards the clients map and every close of a client's send
// channel. Closes must happen under the lock so Send can never race a
// disconnect into a send on a closed channel.
type WSManager struct {
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	mutex      sync.Mutex
	log        zerolog.Logger
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	manager   *WSManager
}

// Message is the envelope every websocket push uses.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWSManager() *WSManager {
	return &WSManager{
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		log:        log.With().Str("component", "websocket").Logger(),
	}
}

func (m *WSManager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			if old, exists := m.clients[client.sessionID]; exists {
				close(old.send)
			}
			m.clients[client.sessionID] = client
			m.mutex.Unlock()
			m.log.Debug().Str("session_id", client.sessionID).Msg("client connected")

		case client := <-m.unregister:
			m.mutex.Lock()
			// Only the client that still owns the session slot is removed; a
			// stale unregister after a reconnect or a buffer drop must not
			// close the current client's channel.
			if current, exists := m.clients[client.sessionID]; exists && current == client {
				delete(m.clients, client.sessionID)
				close(client.send)
				m.log.Debug().Str("session_id", client.sessionID).Msg("client disconnected")
			}
			m.mutex.Unlock()
		}
	}
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Missing session_id parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 256),
		manager:   m,
	}

	m.register <- client

	go client.writePump()
	go client.readPump()
}

// Send pushes one message to a session if it is connected. A full send buffer
// drops the client rather than blocking the caller. The whole send happens
// under the manager lock; the channel send never blocks, and holding the lock
// keeps a concurrent disconnect from closing the channel mid-send.
func (m *WSManager) Send(sessionID string, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, exists := m.clients[sessionID]
	if !exists {
		return nil
	}

	select {
	case client.send <- data:
	default:
		delete(m.clients, sessionID)
		close(client.send)
	}

	return nil
}

func (c *wsClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
