package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

const localsEvents = "ws_events"

// Handler streams events to the connection. Query parameters:
// events=face_detection,safety_result and camera_id=<id>.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		events, ok := c.Locals(localsEvents).(map[EventType]bool)
		if !ok {
			events, _ = ParseEventTypes("")
		}

		client := newClient(hub, c, c.Query("camera_id"), events)
		if !hub.Register(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// UpgradeMiddleware rejects plain HTTP requests and validates the event
// filter before the upgrade, while an HTTP error can still be returned.
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		events, ok := ParseEventTypes(c.Query("events"))
		if !ok {
			return domain.ErrBadRequest.WithError(fiber.NewError(fiber.StatusBadRequest, "unknown event type"))
		}
		c.Locals(localsEvents, events)
		return c.Next()
	}
}
