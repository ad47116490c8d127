package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/followup/backend/internal/infrastructure/logger"
	"github.com/followup/backend/internal/realtime"
	"github.com/followup/backend/internal/transport/http/dto"
)

type fakeAPI struct {
	mu          sync.Mutex
	server      []dto.TaskResponse
	completeErr error
	listCalls   int
	// inFlight, when set, is closed once CompleteTask starts and the call
	// then waits for release.
	inFlight chan struct{}
	release  chan struct{}
}

func (f *fakeAPI) TodayTasks(ctx context.Context) ([]dto.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]dto.TaskResponse(nil), f.server...), nil
}

func (f *fakeAPI) CompleteTask(ctx context.Context, id string) error {
	if f.inFlight != nil {
		close(f.inFlight)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	kept := f.server[:0]
	for _, t := range f.server {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.server = kept
	return nil
}

func ids(tasks []dto.TaskResponse) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func newBoardWith(t *testing.T, api *fakeAPI) *Board {
	t.Helper()
	b := NewBoard(api, logger.NewNop())
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh err=%v", err)
	}
	return b
}

func TestBoard_MarkCompleteRemovesBeforeConfirmation(t *testing.T) {
	api := &fakeAPI{
		server:   []dto.TaskResponse{{ID: "a"}, {ID: "b"}},
		inFlight: make(chan struct{}),
		release:  make(chan struct{}),
	}
	b := newBoardWith(t, api)

	done := make(chan error, 1)
	go func() { done <- b.MarkComplete(context.Background(), "a") }()

	<-api.inFlight
	if got := ids(b.Tasks()); len(got) != 1 || got[0] != "b" {
		t.Fatalf("tasks while in flight=%v, want [b]", got)
	}
	close(api.release)

	if err := <-done; err != nil {
		t.Fatalf("MarkComplete err=%v", err)
	}
	if api.listCalls != 1 {
		t.Fatalf("list calls=%d, want no refetch on success", api.listCalls)
	}
}

func TestBoard_MarkCompleteFailureRefetches(t *testing.T) {
	api := &fakeAPI{
		server:      []dto.TaskResponse{{ID: "a"}, {ID: "b"}},
		completeErr: errors.New("status 500"),
	}
	b := newBoardWith(t, api)

	if err := b.MarkComplete(context.Background(), "a"); err == nil {
		t.Fatalf("MarkComplete err=nil, want failure")
	}
	if api.listCalls != 2 {
		t.Fatalf("list calls=%d, want full refetch", api.listCalls)
	}
	if got := ids(b.Tasks()); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("tasks=%v, want server state [a b]", got)
	}
}

func TestBoard_HandleFrame(t *testing.T) {
	api := &fakeAPI{}
	b := newBoardWith(t, api)

	api.server = []dto.TaskResponse{{ID: "new"}}
	if err := b.HandleFrame(context.Background(), realtime.Frame{Type: realtime.FrameJoined, Channel: "tasks"}); err != nil {
		t.Fatalf("HandleFrame err=%v", err)
	}
	if len(b.Tasks()) != 0 {
		t.Fatalf("non-broadcast frame triggered refresh")
	}

	err := b.HandleFrame(context.Background(), realtime.Frame{
		Type:    realtime.FrameBroadcast,
		Event:   "task.created",
		Payload: map[string]any{"task_id": "new"},
	})
	if err != nil {
		t.Fatalf("HandleFrame err=%v", err)
	}
	if got := ids(b.Tasks()); len(got) != 1 || got[0] != "new" {
		t.Fatalf("tasks=%v, want [new]", got)
	}
}
