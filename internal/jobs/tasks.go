package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/lock"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

const (
	// QueueDefault is the queue bill runs are placed on.
	QueueDefault = "default"
	// TaskBillsGenerate computes and saves every customer's bill for a month.
	TaskBillsGenerate = "bills:generate"
)

// GeneratePayload names the month to bill, as YYYY-MM.
type GeneratePayload struct {
	Month string `json:"month"`
}

// GenerateTaskID is the queue id of month's bill run. At most one task per
// month is pending, scheduled, retrying or archived at a time.
func GenerateTaskID(month time.Time) string {
	return TaskBillsGenerate + ":" + common.MonthStart(month).Format(common.MonthLayout)
}

// NewGenerateTask builds a bill run task for month.
func NewGenerateTask(month time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(GeneratePayload{Month: common.MonthStart(month).Format(common.MonthLayout)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBillsGenerate, body,
		asynq.TaskID(GenerateTaskID(month)),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

// PreviousMonth returns the first day of the month before now's.
func PreviousMonth(now time.Time) time.Time {
	return common.MonthStart(now).AddDate(0, -1, 0)
}

// Client enqueues bill runs.
type Client struct {
	Asynq *asynq.Client
}

// EnqueueGenerate schedules a bill run for month and returns the task id.
// When the month already has a run in the queue, its id is returned and
// nothing new is enqueued.
func (c Client) EnqueueGenerate(ctx context.Context, month time.Time) (string, error) {
	if c.Asynq == nil {
		return "", errors.New("jobs: asynq client not configured")
	}
	task, err := NewGenerateTask(month)
	if err != nil {
		return "", err
	}
	info, err := c.Asynq.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return GenerateTaskID(month), nil
	}
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskBillsGenerate, err)
	}
	return info.ID, nil
}

// Generator runs a month's bills against a price sheet.
type Generator interface {
	Generate(ctx context.Context, month time.Time, sheet pricing.Sheet) (billing.BatchResult, error)
}

// Prices resolves the sheet a run is priced with.
type Prices interface {
	Current(ctx context.Context) (pricing.Sheet, error)
}

// Locker guards a run so one month is generated by one worker at a time.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// GenerateJob handles TaskBillsGenerate.
type GenerateJob struct {
	Bills   Generator
	Prices  Prices
	Locks   Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// Handle runs the bill generation. A month already being generated
// elsewhere is skipped without retry.
func (j *GenerateJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload GeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	month, err := common.ParseMonth("month", payload.Month)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	key := TaskBillsGenerate + ":" + month.Format(common.MonthLayout)

	run := func(ctx context.Context) error {
		sheet, err := j.Prices.Current(ctx)
		if err != nil {
			return err
		}
		res, err := j.Bills.Generate(ctx, month, sheet)
		if err != nil {
			return err
		}
		evt := j.Logger.Info()
		if len(res.Failed) > 0 {
			evt = j.Logger.Warn()
		}
		evt.Str("month", payload.Month).Int("saved", len(res.Saved)).Int("failed", len(res.Failed)).Msg("bill_run_finished")
		return nil
	}

	if j.Locks == nil {
		return run(ctx)
	}
	err = j.Locks.TryWithLock(ctx, key, j.LockTTL, run)
	if errors.Is(err, lock.ErrLocked) {
		j.Logger.Info().Str("month", payload.Month).Msg("bill_run_skipped_locked")
		return nil
	}
	return err
}
