package handlers

import (
	"sync"

	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/realtime"
	"github.com/gofiber/contrib/websocket"
)

type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *logger.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Handle serves one realtime connection. A connection may join several
// channels; broadcasts it sends are relayed to the other members only.
func (h *RealtimeHandler) Handle(c *websocket.Conn) {
	codec, err := realtime.CodecFor(c.Query("encoding", "json"))
	if err != nil {
		h.logger.Warnw("realtime_bad_encoding", "encoding", c.Query("encoding"))
		_ = c.WriteJSON(realtime.Frame{Type: realtime.FrameError, Error: err.Error()})
		_ = c.Close()
		return
	}

	msgType := websocket.TextMessage
	if codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	var writeMu sync.Mutex
	write := func(f realtime.Frame) error {
		data, err := codec.Marshal(f)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return c.WriteMessage(msgType, data)
	}

	joined := make(map[string]*realtime.Subscriber)
	var pumps sync.WaitGroup
	defer func() {
		for _, sub := range joined {
			h.hub.Leave(sub)
		}
		pumps.Wait()
		h.logger.Debugw("realtime_conn_closed", "remote", c.RemoteAddr().String())
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		var f realtime.Frame
		if err := codec.Unmarshal(data, &f); err != nil {
			_ = write(realtime.Frame{Type: realtime.FrameError, Error: "malformed frame"})
			continue
		}

		switch f.Type {
		case realtime.FrameJoin:
			if f.Channel == "" {
				_ = write(realtime.Frame{Type: realtime.FrameError, Error: "channel is required"})
				continue
			}
			if _, ok := joined[f.Channel]; !ok {
				sub := h.hub.Join(f.Channel)
				joined[f.Channel] = sub
				pumps.Add(1)
				go func() {
					defer pumps.Done()
					for out := range sub.Frames() {
						if err := write(out); err != nil {
							h.logger.Warnw("realtime_write_failed", "channel", sub.Channel(), "error", err)
						}
					}
				}()
			}
			_ = write(realtime.Frame{Type: realtime.FrameJoined, Channel: f.Channel})

		case realtime.FrameBroadcast:
			sub, ok := joined[f.Channel]
			if !ok {
				_ = write(realtime.Frame{Type: realtime.FrameError, Channel: f.Channel, Error: "channel not joined"})
				continue
			}
			n := h.hub.Broadcast(f.Channel, realtime.Frame{
				Type:    realtime.FrameBroadcast,
				Channel: f.Channel,
				Event:   f.Event,
				Payload: f.Payload,
			}, sub)
			h.logger.Infow("realtime_broadcast", "channel", f.Channel, "event", f.Event, "delivered", n)

		case realtime.FrameLeave:
			if sub, ok := joined[f.Channel]; ok {
				h.hub.Leave(sub)
				delete(joined, f.Channel)
			}
			_ = write(realtime.Frame{Type: realtime.FrameLeft, Channel: f.Channel})

		default:
			_ = write(realtime.Frame{Type: realtime.FrameError, Error: "unknown frame type"})
		}
	}
}
