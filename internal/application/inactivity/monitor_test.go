package inactivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/succession-vault/internal/domain"
	"github.com/succession-vault/internal/infrastructure/metrics"
	"github.com/succession-vault/internal/pkg/clock"
)

// --- mocks ---

type mockUserPager struct{ mock.Mock }

func (m *mockUserPager) ScanPage(ctx context.Context, limit int32, cursor string) (*domain.UserPage, error) {
	args := m.Called(ctx, limit, cursor)
	if err := args.Error(2); err != nil {
		return nil, err
	}
	if p, ok := args.Get(0).(*domain.UserPage); ok {
		return p, nil
	}
	users, _ := args.Get(0).([]domain.User)
	return &domain.UserPage{Users: users, Next: args.String(1)}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	triggers []domain.SuccessionTrigger
	failFor  map[string]bool
}

func (p *recordingPublisher) PublishTrigger(_ context.Context, t domain.SuccessionTrigger) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[t.UserID] {
		return errors.New("sns unavailable")
	}
	p.triggers = append(p.triggers, t)
	return nil
}

func (p *recordingPublisher) userIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for _, t := range p.triggers {
		ids = append(ids, t.UserID)
	}
	return ids
}

// --- helpers ---

var now = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func user(id string, inactiveDays, threshold int) domain.User {
	return domain.User{
		UserID:                  id,
		LastActivityAt:          ptr(now.AddDate(0, 0, -inactiveDays)),
		InactivityThresholdDays: ptr(threshold),
	}
}

func newMonitor(users *mockUserPager, pub *recordingPublisher, m *metrics.Metrics) *Monitor {
	return NewMonitor(MonitorDeps{
		UserRepo:  users,
		Publisher: pub,
		Clock:     clock.NewFixed(now),
		Metrics:   m,
		PageSize:  2,
	})
}

// --- tests ---

func TestSweep_FlagsOnlyUsersPastDeadline(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{
		user("overdue", 200, 180),
		user("patient", 200, 365),
	}, "", nil)
	pub := &recordingPublisher{}

	res, err := newMonitor(users, pub, nil).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 2, Flagged: 1}, res)
	assert.Equal(t, []string{"overdue"}, pub.userIDs())
	trig := pub.triggers[0]
	assert.NotEmpty(t, trig.EventID)
	assert.Equal(t, 180, trig.ThresholdDays)
	assert.Equal(t, now.AddDate(0, 0, -20), trig.Deadline)
	assert.Equal(t, now, trig.DetectedAt)
}

func TestSweep_SkipsUsersWithoutActivityOrThreshold(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{
		{UserID: "never-logged-in", InactivityThresholdDays: ptr(1)},
		{UserID: "no-threshold", LastActivityAt: ptr(now.AddDate(-5, 0, 0))},
	}, "", nil)
	pub := &recordingPublisher{}

	res, err := newMonitor(users, pub, nil).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 2}, res)
	assert.Empty(t, pub.userIDs())
}

func TestSweep_ExactDeadlineIsNotFlagged(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{user("edge", 180, 180)}, "", nil)
	pub := &recordingPublisher{}

	res, err := newMonitor(users, pub, nil).Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Flagged)
}

func TestSweep_BadRecordDoesNotAbortSweep(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{
		user("malformed", 400, 0),
		user("publish-fails", 400, 30),
	}, "page2", nil)
	users.On("ScanPage", mock.Anything, int32(2), "page2").Return([]domain.User{
		user("overdue", 400, 30),
	}, "", nil)
	pub := &recordingPublisher{failFor: map[string]bool{"publish-fails": true}}
	m := metrics.New(prometheus.NewRegistry())

	res, err := newMonitor(users, pub, m).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 3, Flagged: 1, Failed: 2}, res)
	assert.Equal(t, []string{"overdue"}, pub.userIDs())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvaluationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersFlagged))
	users.AssertExpectations(t)
}

func TestSweep_UndecodableRecordIsCountedAndSkipped(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return(&domain.UserPage{
		Users:   []domain.User{user("good", 1500, 180)},
		Skipped: []domain.SkippedRecord{{ID: "bad", Err: errors.New("decode user: cannot unmarshal string into int")}},
	}, "", nil)
	pub := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())

	res, err := newMonitor(users, pub, m).Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 2, Flagged: 1, Failed: 1}, res)
	assert.Equal(t, []string{"good"}, pub.userIDs())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationFailures))
}

func TestSweep_DoesNotWriteUsers(t *testing.T) {
	// The pager is the only user dependency; a sweep over the same data twice
	// re-emits the trigger.
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{user("overdue", 200, 180)}, "", nil)
	pub := &recordingPublisher{}
	mon := newMonitor(users, pub, nil)

	_, err := mon.Sweep(context.Background())
	require.NoError(t, err)
	_, err = mon.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"overdue", "overdue"}, pub.userIDs())
}

func TestSweep_PageFailure(t *testing.T) {
	users := &mockUserPager{}
	users.On("ScanPage", mock.Anything, int32(2), "").Return(nil, "", errors.New("throttled"))

	_, err := newMonitor(users, &recordingPublisher{}, nil).Sweep(context.Background())

	assert.ErrorContains(t, err, "scan users")
}

func TestDeadline(t *testing.T) {
	d, ok, err := Deadline(user("u", 10, 30))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 20), d)

	_, _, err = Deadline(user("u", 10, -1))
	assert.ErrorIs(t, err, errMalformedThreshold)
}

func TestRun_SweepsAtStartAndStopsOnCancel(t *testing.T) {
	users := &mockUserPager{}
	swept := make(chan struct{}, 1)
	users.On("ScanPage", mock.Anything, int32(2), "").Return([]domain.User{}, "", nil).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})
	mon := NewMonitor(MonitorDeps{
		UserRepo:  users,
		Publisher: &recordingPublisher{},
		Clock:     clock.NewFixed(now),
		Interval:  time.Hour,
		PageSize:  2,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("no sweep at start-up")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
