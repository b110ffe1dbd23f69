// Package inactivity flags users whose inactivity threshold has elapsed.
// The sweep only reads users and emits succession triggers; it never changes
// user state. Triggers may repeat across sweeps while a user stays inactive.
package inactivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/infrastructure/metrics"
	"github.com/succession-vault/internal/pkg/clock"
)

const defaultPageSize = 100

var errMalformedThreshold = errors.New("inactivity threshold must be positive")

type userPager interface {
	ScanPage(ctx context.Context, limit int32, cursor string) (*domain.UserPage, error)
}

type triggerPublisher interface {
	PublishTrigger(ctx context.Context, t domain.SuccessionTrigger) error
}

// SweepResult summarises one pass over the users table.
type SweepResult struct {
	Scanned int
	Flagged int
	Failed  int
}

type Monitor struct {
	users     userPager
	publisher triggerPublisher
	clock     clock.Clock
	metrics   *metrics.Metrics
	interval  time.Duration
	pageSize  int32
}

type MonitorDeps struct {
	UserRepo  userPager
	Publisher triggerPublisher
	Clock     clock.Clock
	Metrics   *metrics.Metrics
	Interval  time.Duration
	PageSize  int32
}

func NewMonitor(deps MonitorDeps) *Monitor {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Monitor{
		users:     deps.UserRepo,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		interval:  interval,
		pageSize:  pageSize,
	}
}

// Deadline returns when u becomes inactive. ok is false for users that have
// never logged in or have no threshold; those are not evaluated.
func Deadline(u domain.User) (deadline time.Time, ok bool, err error) {
	if u.LastActivityAt == nil || u.InactivityThresholdDays == nil {
		return time.Time{}, false, nil
	}
	days := *u.InactivityThresholdDays
	if days <= 0 {
		return time.Time{}, false, fmt.Errorf("%w: %d", errMalformedThreshold, days)
	}
	return u.LastActivityAt.AddDate(0, 0, days), true, nil
}

// Sweep evaluates every user once. A failure on one user, including a record
// that cannot be decoded, is logged and the sweep continues; only a failed page
// read ends the sweep early.
func (m *Monitor) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	defer m.metrics.ObserveSweep(start)

	var res SweepResult
	now := m.clock.Now()
	cursor := ""
	for {
		page, err := m.users.ScanPage(ctx, m.pageSize, cursor)
		if err != nil {
			return res, fmt.Errorf("scan users: %w", err)
		}
		for _, sk := range page.Skipped {
			res.Scanned++
			m.fail(&res, sk.ID, sk.Err)
		}
		for _, u := range page.Users {
			res.Scanned++
			flagged, err := m.evaluate(ctx, u, now)
			if err != nil {
				m.fail(&res, u.UserID, err)
				continue
			}
			if flagged {
				res.Flagged++
				m.metrics.IncrementFlagged()
			}
		}
		if page.Next == "" {
			return res, nil
		}
		cursor = page.Next
	}
}

func (m *Monitor) fail(res *SweepResult, userID string, err error) {
	res.Failed++
	m.metrics.IncrementEvaluationFailure()
	slog.Warn("inactivity evaluation failed", "user_id", userID, "err", err)
}

func (m *Monitor) evaluate(ctx context.Context, u domain.User, now time.Time) (bool, error) {
	deadline, ok, err := Deadline(u)
	if err != nil || !ok || !now.After(deadline) {
		return false, err
	}
	trigger := domain.SuccessionTrigger{
		EventID:        uuid.NewString(),
		UserID:         u.UserID,
		LastActivityAt: *u.LastActivityAt,
		ThresholdDays:  *u.InactivityThresholdDays,
		Deadline:       deadline,
		DetectedAt:     now,
	}
	if err := m.publisher.PublishTrigger(ctx, trigger); err != nil {
		return false, fmt.Errorf("publish trigger: %w", err)
	}
	return true, nil
}

// Run sweeps immediately and then once per interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("inactivity monitor started", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		m.runOnce(ctx)
		select {
		case <-ctx.Done():
			slog.Info("inactivity monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	res, err := m.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("inactivity sweep aborted", "scanned", res.Scanned, "err", err)
		return
	}
	slog.Info("inactivity sweep finished", "scanned", res.Scanned, "flagged", res.Flagged, "failed", res.Failed)
}
