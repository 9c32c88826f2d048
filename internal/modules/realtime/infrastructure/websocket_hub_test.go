package infrastructure

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mesaYaBooking/internal/modules/realtime/domain"
)

func drain(c *Client) []domain.Message {
	var out []domain.Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg domain.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHubBroadcastRespectsTopicsAndMetadata(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, "u-1", "s-1", "availability:r-1:2026-03-14", domain.EntityAvailability, 8)
	b := NewClient(hub, nil, "guest-1", "", "availability:r-2:2026-03-14", domain.EntityAvailability, 8)
	hub.AttachClient(a, []string{"availability.snapshot"})
	hub.AttachClient(b, []string{"availability.snapshot"})

	if hub.ClientCount() != 2 || hub.TopicSubscribers("availability.snapshot") != 2 {
		t.Fatalf("expected 2 clients, got %d/%d", hub.ClientCount(), hub.TopicSubscribers("availability.snapshot"))
	}

	hub.Broadcast(context.Background(), domain.BuildStreamMessage(domain.EntityAvailability, domain.ActionSnapshot, "r-1", nil, time.Now(), domain.Metadata{"streamId": "availability:r-1:2026-03-14"}))
	hub.Broadcast(context.Background(), domain.BuildStreamMessage(domain.EntityRestaurants, domain.ActionList, "", nil, time.Now(), nil))

	if got := drain(a); len(got) != 1 || got[0].ResourceID != "r-1" {
		t.Fatalf("expected one snapshot for a, got %+v", got)
	}
	if got := drain(b); len(got) != 0 {
		t.Fatalf("expected nothing for b, got %+v", got)
	}
}

func TestHubGlobalClientReceivesEverything(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "admin", "s-9", "", "", 8)
	hub.AttachClientToAll(c)

	hub.Broadcast(context.Background(), &domain.Message{Topic: "bookings.created"})
	hub.Broadcast(context.Background(), &domain.Message{Topic: "reviews.created"})
	hub.Broadcast(context.Background(), &domain.Message{Topic: "bookings.confirmed", Metadata: map[string]string{"userId": "u-1"}})

	if got := drain(c); len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
}

func TestHubCloseSession(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, "u-1", "s-1", "restaurants:home", domain.EntityRestaurants, 8)
	b := NewClient(hub, nil, "u-1", "s-1", "availability:r-1:2026-03-14", domain.EntityAvailability, 8)
	other := NewClient(hub, nil, "u-2", "s-2", "restaurants:home", domain.EntityRestaurants, 8)
	hooked := false
	a.AddCloseHook(func(*Client) { hooked = true })

	hub.AttachClient(a, []string{"restaurants.list"})
	hub.AttachClient(b, []string{"availability.snapshot"})
	hub.AttachClient(other, []string{"restaurants.list"})

	if closed := hub.CloseSession("s-1"); closed != 2 {
		t.Fatalf("expected 2 clients closed, got %d", closed)
	}
	if !hooked {
		t.Fatalf("expected close hook to run")
	}
	if hub.ClientCount() != 1 || hub.TopicSubscribers("availability.snapshot") != 0 {
		t.Fatalf("unexpected hub state clients=%d", hub.ClientCount())
	}
	got := drain(a)
	if len(got) != 1 || got[0].Topic != domain.TopicSystemSignedOut {
		t.Fatalf("expected signed-out notice, got %+v", got)
	}
	if _, ok := <-a.send; ok {
		t.Fatalf("expected send channel closed")
	}

	// Closed clients ignore further sends.
	a.SendDomainMessage(&domain.Message{Topic: "x"})
	if hub.CloseSession("") != 0 {
		t.Fatalf("blank session must not match")
	}
}

func TestHubKeepsEveryConnectionOfAStream(t *testing.T) {
	hub := NewHub()
	first := NewClient(hub, nil, "u-1", "s-1", "availability:r-1:2026-03-14", domain.EntityAvailability, 4)
	second := NewClient(hub, nil, "u-1", "s-1", "availability:r-1:2026-03-14", domain.EntityAvailability, 4)
	hub.AttachClient(first, []string{"availability.snapshot"})
	hub.AttachClient(second, []string{"availability.snapshot"})

	if hub.ClientCount() != 2 || hub.TopicSubscribers("availability.snapshot") != 2 {
		t.Fatalf("expected both tabs attached, got %d/%d", hub.ClientCount(), hub.TopicSubscribers("availability.snapshot"))
	}
	hub.Broadcast(context.Background(), &domain.Message{Topic: "availability.snapshot"})
	if len(drain(first)) != 1 || len(drain(second)) != 1 {
		t.Fatalf("expected both tabs to receive the snapshot")
	}

	hub.detachClient(first)
	if hub.ClientCount() != 1 || hub.TopicSubscribers("availability.snapshot") != 1 {
		t.Fatalf("closing one tab must keep the other")
	}
}

func TestHubDoesNotResubscribeClosedClient(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "u-1", "s-1", "restaurants:home", domain.EntityRestaurants, 4)
	hub.AttachClient(c, []string{"restaurants.list"})
	hub.CloseSession("s-1")

	c.processCommand(Command{Action: "subscribe", Topic: "restaurants.list"})
	if hub.TopicSubscribers("restaurants.list") != 0 {
		t.Fatalf("closed client must not be re-added")
	}
	if hub.subscribe(c, "restaurants.list") {
		t.Fatalf("expected subscribe to refuse a closed client")
	}
}
