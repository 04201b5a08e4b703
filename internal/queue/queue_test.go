package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundtrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	want := Message{Type: TypeAttendanceSubmitted, Body: []byte("rec-123")}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestPublishBlockedByCancel(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, Message{Type: TypeAnalyticsRecompute}); err == nil {
		t.Fatal("expected error publishing to a full queue with cancelled context")
	}
}

func TestSerializeRoundtrip(t *testing.T) {
	cases := []Message{
		{Type: TypeAttendanceSubmitted, Body: []byte("abc")},
		{Type: TypeAnalyticsRecompute, Body: nil},
		{Type: "custom", Body: []byte("body|with|pipes")},
	}
	for _, want := range cases {
		got, err := deserialize(serialize(want))
		if err != nil {
			t.Fatalf("deserialize(%q): %v", serialize(want), err)
		}
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Fatalf("roundtrip %+v -> %+v", want, got)
		}
	}
}

func TestDeserializeWithoutType(t *testing.T) {
	got, err := deserialize("no separator here")
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Type != "" || string(got.Body) != "no separator here" {
		t.Fatalf("got %+v", got)
	}
}
