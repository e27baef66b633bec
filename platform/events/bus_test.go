package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncDeliversInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Subscribe("stage.changed", HandlerFunc(func(context.Context, Event) error {
			order = append(order, i)
			return nil
		}))
	}

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "stage.changed"}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("handlers ran out of order: %v", order)
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	wantErr := errors.New("handler down")

	bus.Subscribe("stage.changed", HandlerFunc(func(context.Context, Event) error { return wantErr }))
	bus.Subscribe("stage.changed", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "stage.changed"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
}

func TestPublishOnlyReachesMatchingSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var mu sync.Mutex
	got := map[string]int{}
	done := make(chan struct{}, 1)

	bus.Subscribe("deadline.generated", HandlerFunc(func(_ context.Context, e Event) error {
		mu.Lock()
		got[e.EventName()]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}))
	bus.Subscribe("episode.created", HandlerFunc(func(context.Context, Event) error {
		t.Error("wrong subscriber invoked")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "deadline.generated"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	if got["deadline.generated"] != 1 {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "nobody.listens"})
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "nobody.listens"}); err != nil {
		t.Fatal(err)
	}
}
