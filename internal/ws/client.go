package ws

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const writeWait = 10 * time.Second

type Client struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	cameraID string
	events   map[EventType]bool
	send     chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, cameraID string, events map[EventType]bool) *Client {
	return &Client{
		id:       uuid.New(),
		hub:      hub,
		conn:     conn,
		cameraID: cameraID,
		events:   events,
		send:     make(chan []byte, clientBuffer),
	}
}

// wants applies the client's event type and camera filters
func (c *Client) wants(e Event) bool {
	if !c.events[e.Type] {
		return false
	}
	return c.cameraID == "" || c.cameraID == e.CameraID
}

// ReadPump only drains control frames; clients never send data
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
