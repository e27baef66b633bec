package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"studio_production_backend/internal/events"
	"studio_production_backend/platform/config"
	"studio_production_backend/platform/logger"
)

// Client enqueues reminder tasks on redis via asynq.
type Client struct {
	client   *asynq.Client
	queue    string
	leadTime time.Duration
	log      *logger.Logger
}

// ReminderScheduler is the slice of the client the deadline flows use.
type ReminderScheduler interface {
	ScheduleDeadlineReminder(ctx context.Context, payload DeadlineReminderPayload, runAt time.Time) error
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client:   asynq.NewClient(opt),
		queue:    queue,
		leadTime: cfg.GetReminderLeadTime(),
		log:      log,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleDeadlineReminder enqueues a reminder to be processed at runAt.
// Past run times are enqueued for immediate processing.
func (c *Client) ScheduleDeadlineReminder(ctx context.Context, payload DeadlineReminderPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewDeadlineReminderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.Queue(c.queue))
	return err
}

// SubscribeDeadlineEvents wires the client to the event bus so every
// generated or rescheduled deadline gets a reminder enqueued at
// deadline date minus the configured lead time.
func (c *Client) SubscribeDeadlineEvents(bus events.Bus) {
	bus.Subscribe("deadline.generated", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DeadlinesGenerated)
		if !ok {
			return nil
		}
		for _, d := range e.Deadlines {
			err := c.ScheduleDeadlineReminder(ctx, DeadlineReminderPayload{
				DeadlineID: d.DeadlineID.String(),
				EpisodeID:  e.EpisodeID.String(),
				Role:       d.Role,
			}, d.Date.Add(-c.leadTime))
			if err != nil {
				c.log.Error("failed to enqueue deadline reminder", "deadline_id", d.DeadlineID.String(), "error", err)
			}
		}
		return nil
	}))

	bus.Subscribe("deadline.rescheduled", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DeadlineRescheduled)
		if !ok {
			return nil
		}
		err := c.ScheduleDeadlineReminder(ctx, DeadlineReminderPayload{
			DeadlineID: e.DeadlineID.String(),
			EpisodeID:  e.EpisodeID.String(),
			Role:       e.Role,
		}, e.NewDate.Add(-c.leadTime))
		if err != nil {
			c.log.Error("failed to enqueue deadline reminder", "deadline_id", e.DeadlineID.String(), "error", err)
		}
		return nil
	}))
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
