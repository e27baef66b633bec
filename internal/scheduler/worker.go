package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	deadlinerepo "studio_production_backend/internal/deadline/repository"
	episoderepo "studio_production_backend/internal/episode/repository"
	identitydomain "studio_production_backend/internal/identity/domain"
	"studio_production_backend/platform/apperr"
	"studio_production_backend/platform/config"
	"studio_production_backend/platform/logger"
)

// TeamMembers resolves the active holders of a role on an episode's team.
type TeamMembers interface {
	ActiveMembers(ctx context.Context, episodeID uuid.UUID, role identitydomain.RoleTag) ([]uuid.UUID, error)
}

// Notifier delivers the reminder to the role members.
type Notifier interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, ntype, title, message string, data map[string]any, episodeID *uuid.UUID)
}

// Worker consumes reminder tasks and fans out deadline reminders.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	deadlines deadlinerepo.Repository
	episodes  *episoderepo.Repo
	members   TeamMembers
	notifier  Notifier
	leadTime  time.Duration
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, members TeamMembers, notifier Notifier, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		deadlines: deadlinerepo.New(pool),
		episodes:  episoderepo.New(pool),
		members:   members,
		notifier:  notifier,
		leadTime:  cfg.GetReminderLeadTime(),
		log:       log,
	}

	mux.HandleFunc(TaskDeadlineReminder, w.handleDeadlineReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDeadlineReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDeadlineReminderPayload(task)
	if err != nil {
		return err
	}

	deadlineID, err := uuid.Parse(payload.DeadlineID)
	if err != nil {
		return err
	}

	deadline, err := w.deadlines.Get(ctx, deadlineID)
	if err != nil {
		// Deleted deadlines need no reminder.
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}

	if deadline.IsCompleted {
		return nil
	}

	// A reschedule enqueues a fresh reminder at the new time; a task
	// firing well before the current due window is the stale one.
	if time.Until(deadline.DeadlineDate) > w.leadTime+time.Hour {
		return nil
	}

	role, err := identitydomain.ParseRoleTag(deadline.Role)
	if err != nil {
		w.log.Error("deadline carries unknown role", "deadline_id", deadlineID.String(), "role", deadline.Role)
		return nil
	}

	targets, err := w.members.ActiveMembers(ctx, deadline.EpisodeID, role)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	episodeTitle := ""
	if episode, err := w.episodes.GetEpisode(ctx, deadline.EpisodeID); err == nil {
		episodeTitle = episode.Title
	}

	message := fmt.Sprintf("%s is due on %s.", deadline.Title, deadline.DeadlineDate.Format("2 January 2006"))
	if episodeTitle != "" {
		message = fmt.Sprintf("%s for %s is due on %s.", deadline.Title, episodeTitle, deadline.DeadlineDate.Format("2 January 2006"))
	}

	episodeID := deadline.EpisodeID
	w.notifier.Notify(ctx, targets, "deadline_reminder", "Deadline approaching", message,
		map[string]any{"deadlineId": deadline.ID.String(), "role": deadline.Role},
		&episodeID)

	return nil
}
