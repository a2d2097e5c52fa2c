package changehub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"servicepulse/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// WebSocketClient реалізує інтерфейс changehub.Client
type WebSocketClient struct {
	ID       string
	Identity models.Identity
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan models.ChangeEvent

	closeOnce sync.Once
	closed    chan struct{}
}

func NewWebSocketClient(hub *Hub, conn *websocket.Conn, id string, identity models.Identity) *WebSocketClient {
	return &WebSocketClient{
		ID:       id,
		Identity: identity,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan models.ChangeEvent, sendBuffer),
		closed:   make(chan struct{}),
	}
}

func (c *WebSocketClient) GetClientID() string                       { return c.ID }
func (c *WebSocketClient) GetIdentity() models.Identity              { return c.Identity }
func (c *WebSocketClient) GetSendChannel() chan<- models.ChangeEvent { return c.Send }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close signals the write pump to send a close frame and stop.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
