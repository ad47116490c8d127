package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/followup/backend/internal/core/ports"
)

var ErrSubscriptionClosed = errors.New("realtime: subscription closed")

// LocalTransport publishes on a Hub living in the same process. Its
// subscriptions are ready as soon as they are created.
type LocalTransport struct {
	hub *Hub
}

func NewLocalTransport(hub *Hub) *LocalTransport {
	return &LocalTransport{hub: hub}
}

func (t *LocalTransport) Subscribe(ctx context.Context, channel string) (ports.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	states := make(chan ports.SubscriptionState, 1)
	states <- ports.SubscriptionSubscribed
	return &localSubscription{
		hub:    t.hub,
		sub:    t.hub.Join(channel),
		states: states,
	}, nil
}

type localSubscription struct {
	hub    *Hub
	sub    *Subscriber
	states chan ports.SubscriptionState

	mu     sync.Mutex
	closed bool
}

func (s *localSubscription) States() <-chan ports.SubscriptionState { return s.states }

func (s *localSubscription) Send(ctx context.Context, msg ports.BroadcastMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriptionClosed
	}
	s.hub.Broadcast(s.sub.Channel(), broadcastFrame(s.sub.Channel(), msg), s.sub)
	return nil
}

func (s *localSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.hub.Leave(s.sub)
	return nil
}
