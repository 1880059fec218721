package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockflow/stockflow/internal/inventory"
)

const (
	// TaskSummaryWarmup pre-populates the inventory summary cache so the
	// first dashboard request after an invalidation stays fast.
	TaskSummaryWarmup = "inventory:summary_warmup"
)

// SummaryWarmupPayload carries scheduling metadata.
type SummaryWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSummaryWarmupTask constructs an Asynq task for cache warmup.
func NewSummaryWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SummaryWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, body, asynq.Queue(QueueDefault)), nil
}

// NewSummaryWarmupHandler returns the handler processing warmup tasks.
// It loads the unfiltered first page, the view nearly every dashboard
// session opens with.
func NewSummaryWarmupHandler(svc *inventory.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SummaryWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		page, err := svc.Search(ctx, inventory.SummaryFilter{})
		if err != nil {
			return err
		}
		logger.Info("inventory summary warmup complete",
			slog.Int("rows", len(page.Items)),
			slog.Int("total", page.Pagination.Total))
		return nil
	}
}
