package services

import (
	"context"
	"fmt"
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"github.com/followup/backend/internal/infrastructure/logger"
)

const defaultReadyTimeout = 5 * time.Second

type NotifierConfig struct {
	Transport    ports.BroadcastTransport
	Channel      string
	ReadyTimeout time.Duration
	Logger       *logger.Logger
}

type notifier struct {
	transport    ports.BroadcastTransport
	channel      string
	readyTimeout time.Duration
	logger       *logger.Logger
}

func NewNotifier(cfg NotifierConfig) ports.TaskNotifier {
	channel := cfg.Channel
	if channel == "" {
		channel = "tasks"
	}
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	return &notifier{
		transport:    cfg.Transport,
		channel:      channel,
		readyTimeout: timeout,
		logger:       cfg.Logger,
	}
}

// NotifyTaskCreated opens a fresh subscription, waits until it is confirmed,
// sends one task.created broadcast and releases the subscription on every path.
func (n *notifier) NotifyTaskCreated(ctx context.Context, task *domain.Task) error {
	sub, err := n.transport.Subscribe(ctx, n.channel)
	if err != nil {
		n.logger.Errorw("notify_subscribe_failed", "channel", n.channel, "task_id", task.ID, "error", err)
		return fmt.Errorf("%w: subscribe: %v", ErrNotifyFailure, err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			n.logger.Warnw("notify_release_failed", "channel", n.channel, "task_id", task.ID, "error", err)
		}
	}()

	if err := n.awaitReady(ctx, sub); err != nil {
		n.logger.Errorw("notify_not_ready", "channel", n.channel, "task_id", task.ID, "error", err)
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.readyTimeout)
	defer cancel()

	msg := ports.BroadcastMessage{
		Type:    "broadcast",
		Event:   domain.EventTaskCreated,
		Payload: domain.NewTaskCreatedPayload(task).Map(),
	}
	if err := sub.Send(sendCtx, msg); err != nil {
		n.logger.Errorw("notify_send_failed", "channel", n.channel, "task_id", task.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrNotifyFailure, err)
	}

	n.logger.Infow("notify_send_ok", "channel", n.channel, "task_id", task.ID, "event", msg.Event)
	return nil
}

func (n *notifier) awaitReady(ctx context.Context, sub ports.Subscription) error {
	timer := time.NewTimer(n.readyTimeout)
	defer timer.Stop()

	states := sub.States()
	for {
		select {
		case state, ok := <-states:
			if !ok {
				return fmt.Errorf("%w: subscription ended before ready", ErrNotifyFailure)
			}
			switch state {
			case ports.SubscriptionSubscribed:
				return nil
			case ports.SubscriptionChannelError, ports.SubscriptionClosed:
				return fmt.Errorf("%w: subscription state %s", ErrNotifyFailure, state)
			}
		case <-timer.C:
			return fmt.Errorf("%w (%s)", ErrNotifyTimeout, n.readyTimeout)
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotifyFailure, ctx.Err())
		}
	}
}
