package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// TaskSafetyScan flags items whose total on-hand quantity fell below
	// their safety stock threshold.
	TaskSafetyScan = "stock:safety_scan"
)

// SafetyScanPayload carries scheduling metadata.
type SafetyScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSafetyScanTask constructs an Asynq task for the safety stock scan.
func NewSafetyScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SafetyScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSafetyScan, body, asynq.Queue(QueueDefault)), nil
}

const safetyScanQuery = `
SELECT i.id, i.sku, i.name, i.safety_stock, COALESCE(SUM(p.quantity), 0) AS on_hand
FROM items i
LEFT JOIN inventory_positions p ON p.item_id = i.id
GROUP BY i.id, i.sku, i.name, i.safety_stock
HAVING COALESCE(SUM(p.quantity), 0) < i.safety_stock
ORDER BY i.sku`

// NewSafetyScanHandler returns the handler processing TaskSafetyScan tasks.
func NewSafetyScanHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SafetyScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		rows, err := pool.Query(ctx, safetyScanQuery)
		if err != nil {
			return err
		}
		defer rows.Close()

		flagged := 0
		for rows.Next() {
			var (
				id, safety, onHand int64
				sku, name          string
			)
			if err := rows.Scan(&id, &sku, &name, &safety, &onHand); err != nil {
				return err
			}
			flagged++
			logger.Warn("item below safety stock",
				slog.Int64("item_id", id),
				slog.String("sku", sku),
				slog.Int64("safety_stock", safety),
				slog.Int64("on_hand", onHand))
		}
		if err := rows.Err(); err != nil {
			return err
		}

		logger.Info("safety stock scan complete",
			slog.Int("flagged", flagged),
			slog.Time("scheduled_for", payload.ScheduledFor))
		return nil
	}
}
