package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	calls := 0
	d.Subscribe(EventUserBlocked, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventUserBlocked, func(context.Context, Event) error {
		calls++
		return nil
	})
	d.Subscribe(EventUserUnblocked, func(context.Context, Event) error {
		t.Error("unblocked handler should not run")
		return nil
	})

	if err := d.Publish(context.Background(), Event{ID: "e1", Type: EventUserBlocked}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestNATSPublisherForward(t *testing.T) {
	conn := &fakeConn{}
	pub := newNATSPublisher(conn, "moderation", nil)
	actor := "77"
	event := Event{
		ID:        "e1",
		Type:      EventTicketAssigned,
		EntityID:  "t1",
		ActorID:   &actor,
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Payload:   TicketAssignedPayload{AssigneeID: "77", Scope: "shop:5"},
	}

	if err := pub.Forward(context.Background(), event); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "moderation.ticket_assigned" {
		t.Fatalf("subjects = %v", conn.subjects)
	}

	var decoded map[string]any
	if err := json.Unmarshal(conn.payloads[0], &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["entity_id"] != "t1" || decoded["type"] != "ticket_assigned" {
		t.Fatalf("unexpected payload: %v", decoded)
	}

	if err := pub.Close(); err != nil || !conn.drained {
		t.Fatalf("Close: err=%v drained=%v", err, conn.drained)
	}
}

func TestNATSPublisherSubjectWithoutPrefix(t *testing.T) {
	pub := newNATSPublisher(&fakeConn{}, "", nil)
	if got := pub.Subject(EventChatMessageAdded); got != "chat_message_added" {
		t.Fatalf("Subject = %q", got)
	}
}

func TestNATSPublisherPropagatesPublishError(t *testing.T) {
	pub := newNATSPublisher(&fakeConn{err: errors.New("disconnected")}, "m", nil)
	if err := pub.Forward(context.Background(), Event{ID: "e1", Type: EventUserBlocked}); err == nil {
		t.Fatal("expected publish error")
	}
}
