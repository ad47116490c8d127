package ports

import "context"

// SubscriptionState follows the lifecycle of a broadcast channel subscription.
type SubscriptionState string

const (
	SubscriptionSubscribed   SubscriptionState = "SUBSCRIBED"
	SubscriptionChannelError SubscriptionState = "CHANNEL_ERROR"
	SubscriptionClosed       SubscriptionState = "CLOSED"
)

// BroadcastMessage is the wire shape sent on a channel.
type BroadcastMessage struct {
	Type    string         `json:"type" cbor:"type"`
	Event   string         `json:"event" cbor:"event"`
	Payload map[string]any `json:"payload" cbor:"payload"`
}

type BroadcastTransport interface {
	// Subscribe starts joining channel and returns immediately. Readiness is
	// reported on Subscription.States.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Subscription interface {
	States() <-chan SubscriptionState
	Send(ctx context.Context, msg BroadcastMessage) error
	// Close releases the subscription. Safe to call more than once.
	Close() error
}
