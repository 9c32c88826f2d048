package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"mesaYaBooking/internal/modules/realtime/application/usecase"
	"mesaYaBooking/internal/modules/realtime/domain"
)

var testTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, msg *domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type recordingRefresher struct {
	actions []string
}

func (r *recordingRefresher) Refresh(_ context.Context, msg *domain.Message) {
	r.actions = append(r.actions, msg.Action)
}

type recordingCloser struct {
	sessions []string
}

func (r *recordingCloser) CloseSession(id string) int {
	r.sessions = append(r.sessions, id)
	return 1
}

func TestEntityStreamHandlerFiltersBroadcastButAlwaysRefreshes(t *testing.T) {
	b := &recordingBroadcaster{}
	r := &recordingRefresher{}
	h := NewEntityStreamHandler("booking", "mesaya.bookings", []string{"created"}, usecase.NewBroadcastUseCase(b), r)

	if h.Topic() != "mesaya.bookings" {
		t.Fatalf("unexpected topic %s", h.Topic())
	}

	_ = h.Handle(context.Background(), &domain.Message{Action: "created", ResourceID: "b-1"})
	_ = h.Handle(context.Background(), &domain.Message{Action: "cancelled", ResourceID: "b-1"})
	_ = h.Handle(context.Background(), &domain.Message{Action: domain.ActionSnapshot})

	if len(b.msgs) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(b.msgs))
	}
	if b.msgs[0].Topic != "bookings.created" || b.msgs[0].Entity != domain.EntityBookings {
		t.Fatalf("unexpected message %+v", b.msgs[0])
	}
	if len(r.actions) != 2 || r.actions[0] != "created" || r.actions[1] != "cancelled" {
		t.Fatalf("unexpected refreshes %v", r.actions)
	}
}

func TestUserEventsHandler(t *testing.T) {
	b := &recordingBroadcaster{}
	closer := &recordingCloser{}
	h := NewUserEventsHandler("mesaya.users", usecase.NewBroadcastUseCase(b), closer)

	_ = h.Handle(context.Background(), domain.NewChangeEvent(domain.EntityUsers, domain.ActionSignedOut, "u-1", domain.Metadata{"sessionId": "s-1"}, nil, testTime))
	if len(closer.sessions) != 1 || closer.sessions[0] != "s-1" {
		t.Fatalf("expected session s-1 closed, got %v", closer.sessions)
	}
	if len(b.msgs) != 0 {
		t.Fatalf("sign-out must not broadcast, got %d", len(b.msgs))
	}

	_ = h.Handle(context.Background(), domain.NewChangeEvent(domain.EntityUsers, domain.ActionCreated, "u-2", nil, nil, testTime))
	if len(b.msgs) != 1 || b.msgs[0].Meta("userId") != "u-2" {
		t.Fatalf("expected broadcast scoped to u-2, got %+v", b.msgs)
	}
}
