package realtime

import "github.com/followup/backend/internal/core/ports"

// Frame types exchanged on the realtime websocket.
const (
	FrameJoin      = "join"
	FrameJoined    = "joined"
	FrameBroadcast = "broadcast"
	FrameLeave     = "leave"
	FrameLeft      = "left"
	FrameError     = "error"
)

type Frame struct {
	Type    string         `json:"type" cbor:"type"`
	Channel string         `json:"channel,omitempty" cbor:"channel,omitempty"`
	Event   string         `json:"event,omitempty" cbor:"event,omitempty"`
	Payload map[string]any `json:"payload,omitempty" cbor:"payload,omitempty"`
	Error   string         `json:"error,omitempty" cbor:"error,omitempty"`
}

func broadcastFrame(channel string, msg ports.BroadcastMessage) Frame {
	return Frame{
		Type:    FrameBroadcast,
		Channel: channel,
		Event:   msg.Event,
		Payload: msg.Payload,
	}
}
