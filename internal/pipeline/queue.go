package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeReconcileVideo is the asynq task type for resolving one
// submitted video job.
const TypeReconcileVideo = "video:reconcile"

// Queue enqueues reconciliation work onto the asynq-backed task queue.
type Queue struct {
	client *asynq.Client
}

// NewQueue connects an asynq client to the given redis instance.
func NewQueue(redisAddr, redisPassword string) *Queue {
	return &Queue{client: asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})}
}

// EnqueueReconcile schedules background reconciliation of one async
// video job.
func (q *Queue) EnqueueReconcile(ctx context.Context, payload ReconcilePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reconcile payload: %w", err)
	}
	task := asynq.NewTask(TypeReconcileVideo, body,
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue reconcile: %w", err)
	}
	return nil
}

// Close releases the underlying redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}

var _ ReconcileEnqueuer = (*Queue)(nil)
