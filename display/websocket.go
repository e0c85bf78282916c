package syssonic

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSFrame is one websocket push: playback status plus whatever
// cycle data and events exist at that moment
type WSFrame struct {
	Status   StatusData    `json:"status"`
	Snapshot *SnapshotData `json:"snapshot,omitempty"`
	Params   *ParamsData   `json:"params,omitempty"`
	Events   []EventData   `json:"events,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler streams frames until the peer goes away
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Send status frames periodically
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		frame := v.BuildWSFrame()
		if err := conn.WriteJSON(frame); err != nil {
			return // Connection closed
		}
	}
}

// BuildWSFrame assembles the current state of the machine.
// Draining events here competes with /api/events, a client
// should consume one surface or the other.
func (v *View) BuildWSFrame() WSFrame {
	frame := WSFrame{
		Status: buildStatusData(v.Sonifier),
		Events: buildEventData(v.Sonifier.Controller.PollEvents()),
	}

	m, p := v.Sonifier.Snapshot()
	if m != nil {
		sd := buildSnapshotData(m)
		frame.Snapshot = &sd
	}
	if p != nil {
		pd := buildParamsData(p)
		frame.Params = &pd
	}

	return frame
}
