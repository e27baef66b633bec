package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"studio_production_backend/internal/events"
	"studio_production_backend/platform/logger"
)

type fakeSchedulerConfig struct {
	redisURL string
}

func (f fakeSchedulerConfig) GetRedisURL() string { return f.redisURL }

func (f fakeSchedulerConfig) GetAsynqQueueName() string { return "production" }

func (f fakeSchedulerConfig) GetAsynqConcurrency() int { return 1 }

func (f fakeSchedulerConfig) GetReminderLeadTime() time.Duration { return 24 * time.Hour }

func newTestClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg, logger.New("test"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })

	return client, inspector
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}, logger.New("test")); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestScheduleDeadlineReminder(t *testing.T) {
	client, inspector := newTestClient(t)

	payload := DeadlineReminderPayload{
		DeadlineID: uuid.New().String(),
		EpisodeID:  uuid.New().String(),
		Role:       "editor",
	}
	runAt := time.Now().Add(48 * time.Hour)

	if err := client.ScheduleDeadlineReminder(context.Background(), payload, runAt); err != nil {
		t.Fatal(err)
	}

	tasks, err := inspector.ListScheduledTasks("production")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskDeadlineReminder {
		t.Errorf("task type = %s, want %s", tasks[0].Type, TaskDeadlineReminder)
	}

	parsed, err := ParseDeadlineReminderPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatal(err)
	}
	if parsed != payload {
		t.Errorf("payload roundtrip = %+v, want %+v", parsed, payload)
	}
}

func TestSubscribeDeadlineEventsEnqueuesPerDeadline(t *testing.T) {
	client, inspector := newTestClient(t)

	bus := events.NewInMemoryBus(logger.New("test"))
	client.SubscribeDeadlineEvents(bus)

	episodeID := uuid.New()
	err := bus.PublishSync(context.Background(), events.DeadlinesGenerated{
		BaseEvent: events.NewBaseEvent(),
		EpisodeID: episodeID,
		Deadlines: []events.DeadlineDue{
			{DeadlineID: uuid.New(), Role: "creative", Date: time.Now().AddDate(0, 0, 45)},
			{DeadlineID: uuid.New(), Role: "editor", Date: time.Now().AddDate(0, 0, 14)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	tasks, err := inspector.ListScheduledTasks("production")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected one reminder per generated deadline, got %d", len(tasks))
	}
}

func TestSubscribeDeadlineEventsReschedule(t *testing.T) {
	client, inspector := newTestClient(t)

	bus := events.NewInMemoryBus(logger.New("test"))
	client.SubscribeDeadlineEvents(bus)

	err := bus.PublishSync(context.Background(), events.DeadlineRescheduled{
		BaseEvent:  events.NewBaseEvent(),
		DeadlineID: uuid.New(),
		EpisodeID:  uuid.New(),
		Role:       "quality_control",
		NewDate:    time.Now().AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatal(err)
	}

	tasks, err := inspector.ListScheduledTasks("production")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 reminder after reschedule, got %d", len(tasks))
	}
}
