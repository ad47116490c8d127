package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/followup/backend/internal/core/ports"
	"github.com/followup/backend/internal/domain"
	"gorm.io/gorm"
)

// callLog records the order collaborators were called in.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeApplications struct {
	tenants map[string]string
	err     error
}

func (f *fakeApplications) GetTenantID(ctx context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tenantID, ok := f.tenants[id]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return tenantID, nil
}

func (f *fakeApplications) Create(ctx context.Context, app *domain.Application) error {
	f.tenants[app.ID] = app.TenantID
	return nil
}

type fakeTaskRepo struct {
	log      *callLog
	err      error
	inserted []domain.Task
	seq      int
}

func (f *fakeTaskRepo) Insert(ctx context.Context, task *domain.Task) error {
	f.log.add("insert")
	if f.err != nil {
		return f.err
	}
	f.seq++
	task.ID = fmt.Sprintf("task-%d", f.seq)
	f.inserted = append(f.inserted, *task)
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	for i := range f.inserted {
		if f.inserted[i].ID == id {
			t := f.inserted[i]
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepo) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Task
	for _, t := range f.inserted {
		if t.Status != domain.TaskStatusCompleted && !t.DueAt.Before(from) && !t.DueAt.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) MarkCompleted(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.inserted {
		if f.inserted[i].ID == id {
			f.inserted[i].Status = domain.TaskStatusCompleted
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	log      *callLog
	err      error
	mu       sync.Mutex
	notified []string
	done     chan struct{}
}

func (f *fakeNotifier) NotifyTaskCreated(ctx context.Context, task *domain.Task) error {
	f.log.add("notify")
	f.mu.Lock()
	f.notified = append(f.notified, task.ID)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return f.err
}

// fakeTransport hands out one scripted subscription per Subscribe call.
type fakeTransport struct {
	subscribeErr error
	newSub       func() *fakeSubscription
	subs         []*fakeSubscription
}

func (f *fakeTransport) Subscribe(ctx context.Context, channel string) (ports.Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	sub := f.newSub()
	sub.channel = channel
	f.subs = append(f.subs, sub)
	return sub, nil
}

type fakeSubscription struct {
	channel string
	states  chan ports.SubscriptionState
	sendErr error

	mu     sync.Mutex
	sent   []ports.BroadcastMessage
	closes int
}

func newFakeSubscription(initial ...ports.SubscriptionState) *fakeSubscription {
	states := make(chan ports.SubscriptionState, len(initial)+1)
	for _, s := range initial {
		states <- s
	}
	return &fakeSubscription{states: states}
}

func (f *fakeSubscription) States() <-chan ports.SubscriptionState { return f.states }

func (f *fakeSubscription) Send(ctx context.Context, msg ports.BroadcastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes > 0 {
		return errors.New("send after close")
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSubscription) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}
