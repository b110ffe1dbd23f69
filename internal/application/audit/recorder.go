// Package audit records activity entries on behalf of the workflow services.
// Recording never fails the caller: store errors are logged and counted.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/infrastructure/metrics"
	"github.com/succession-vault/internal/pkg/clock"
	"github.com/succession-vault/internal/pkg/id"
)

const writeTimeout = 5 * time.Second

type logStore interface {
	Append(ctx context.Context, l *domain.ActivityLog) error
}

type Recorder struct {
	store   logStore
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewRecorder(store logStore, clk clock.Clock, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, clock: clk, metrics: m}
}

// Record assigns an id and timestamp to entry and appends it. The write outlives
// cancellation of ctx so a client disconnect does not drop the entry.
func (r *Recorder) Record(ctx context.Context, entry domain.ActivityLog) {
	entry.Timestamp = r.clock.Now()
	entry.LogID = id.NewAt(entry.Timestamp)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.store.Append(ctx, &entry); err != nil {
		r.metrics.IncrementAuditFailure()
		slog.Warn("audit write failed",
			"action", entry.Action,
			"actor_id", entry.ActorID,
			"subject_id", entry.SubjectID,
			"err", err,
		)
	}
}
