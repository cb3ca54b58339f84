package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"storyreel/internal/domain"
)

// Worker consumes reconcile tasks and drives the poller until each
// async job reaches a terminal state.
type Worker struct {
	reconciler *Reconciler
	logger     zerolog.Logger
}

// NewWorker constructs a Worker around the reconciler.
func NewWorker(reconciler *Reconciler, logger zerolog.Logger) *Worker {
	return &Worker{reconciler: reconciler, logger: logger}
}

// Mux returns the asynq handler mux for this worker.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReconcileVideo, w.HandleReconcile)
	return mux
}

// HandleReconcile polls one submitted video job to completion. A
// terminal business failure is already recorded in the ledger, so it
// does not trigger an asynq retry; only infrastructure errors do.
func (w *Worker) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	outcome, err := w.reconciler.Poll(ctx, payload.OwnerID, payload.Handle)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Scene or project deleted while the job was in flight.
			return fmt.Errorf("job %s no longer tracked: %w", payload.Handle, asynq.SkipRetry)
		}
		return err
	}

	w.logger.Info().
		Str("scene_id", payload.SceneID).
		Str("job_handle", payload.Handle).
		Str("status", string(outcome.Status)).
		Msg("reconcile task finished")
	return nil
}
