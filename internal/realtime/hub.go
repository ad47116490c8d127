package realtime

import (
	"sync"

	"github.com/followup/backend/internal/infrastructure/logger"
)

const subscriberBuffer = 64

// Subscriber is one membership of a channel. Frames is closed by Hub.Leave.
type Subscriber struct {
	channel string
	out     chan Frame
}

func (s *Subscriber) Channel() string { return s.channel }

func (s *Subscriber) Frames() <-chan Frame { return s.out }

// Hub fans broadcast frames out to every other subscriber of a channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
	logger   *logger.Logger
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Join(channel string) *Subscriber {
	sub := &Subscriber{channel: channel, out: make(chan Frame, subscriberBuffer)}

	h.mu.Lock()
	members := h.channels[channel]
	if members == nil {
		members = make(map[*Subscriber]struct{})
		h.channels[channel] = members
	}
	members[sub] = struct{}{}
	count := len(members)
	h.mu.Unlock()

	h.logger.Debugw("realtime_join", "channel", channel, "subscribers", count)
	return sub
}

// Leave removes sub and closes its frame stream. Repeated calls are no-ops.
func (h *Hub) Leave(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.channels[sub.channel]
	if _, ok := members[sub]; !ok {
		return
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(h.channels, sub.channel)
	}
	close(sub.out)
	h.logger.Debugw("realtime_leave", "channel", sub.channel, "subscribers", len(members))
}

// Broadcast delivers f to every subscriber of channel except from and returns
// how many received it. Slow subscribers whose buffer is full miss the frame.
func (h *Hub) Broadcast(channel string, f Frame, from *Subscriber) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.channels[channel] {
		if sub == from {
			continue
		}
		select {
		case sub.out <- f:
			delivered++
		default:
			h.logger.Warnw("realtime_subscriber_lagging", "channel", channel, "event", f.Event)
		}
	}
	return delivered
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
