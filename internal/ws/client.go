package ws

import (
	"CaseLink/entity"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// Client is a single WebSocket connection of an authenticated user.
// rooms is guarded by the hub mutex.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	name   string
	rooms  map[string]bool
}

func newClient(hub *Hub, conn *websocket.Conn, user *entity.UserAuth) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.sendBuffer),
		userID: user.UserID,
		name:   user.Name,
		rooms:  make(map[string]bool),
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
// It handles ping/pong keepalive and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.hub.refreshPresence(c)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read", slog.String("user_id", c.userID), slog.String("error", err.Error()))
			}
			break
		}
		c.hub.HandleClientMessage(c, raw)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticator validates a token and returns the caller.
type Authenticator interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

func newUpgrader(allowOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowOrigins) == 0 {
				return true
			}
			return slices.Contains(allowOrigins, r.Header.Get("Origin"))
		},
	}
}

// ServeWs returns the handler upgrading authenticated requests to sockets.
// The token is read from the "token" query parameter.
func ServeWs(hub *Hub, auth Authenticator, allowOrigins []string, log *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(allowOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := auth.AuthenticateByToken(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := newClient(hub, conn, user)
		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}
