package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Snapshot returns the current state of a run, sent to a subscriber before
// any live progress so a late client knows where the run stands.
type Snapshot func(runID string) (any, bool)

// RegisterRoutes mounts GET /ws/:runID, which streams the progress events of
// one backfill run. snapshot may be nil.
func RegisterRoutes(r fiber.Router, hub *Hub, snapshot Snapshot) {
	r.Get("/ws/:runID", websocket.New(func(c *websocket.Conn) {
		serveRun(c, hub, snapshot)
	}))
}

func serveRun(c *websocket.Conn, hub *Hub, snapshot Snapshot) {
	runID := c.Params("runID")
	client := hub.Register(runID)
	defer hub.Unregister(client)

	// Events published meanwhile wait in client.Send, after the snapshot.
	if snapshot != nil {
		if state, ok := snapshot(runID); ok {
			if err := c.WriteJSON(state); err != nil {
				return
			}
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Clients only send close frames; any read error ends the subscription.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	hub.Unregister(client)
	<-done
}
