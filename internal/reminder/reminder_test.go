package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/platform/memory"
	"github.com/shabelingo/shabelingo-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	fail  uuid.UUID
}

func (n *recordingNotifier) NotifyDue(_ context.Context, userID uuid.UUID, count int) error {
	if userID == n.fail {
		return errors.New("mailbox full")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = make(map[uuid.UUID]int)
	}
	n.calls[userID] = count
	return nil
}

type counterFunc func(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)

func (f counterFunc) CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error) {
	return f(ctx, now)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	now := storetest.Base
	memos := memory.NewMemoStore(nil)

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	day := 24 * time.Hour
	require.NoError(t, memos.CreateMultiple(ctx, []*domain.Memo{
		storetest.NewMemo(t, alice, -30*day, domain.StatusReview, -time.Hour),
		storetest.NewMemo(t, alice, -30*day, domain.StatusReview, 0),
		storetest.NewMemo(t, bob, -30*day, domain.StatusReview, -2*day),
		storetest.NewMemo(t, carol, -30*day, domain.StatusReview, time.Hour),
		storetest.NewMemo(t, carol, -day, domain.StatusNew, 0),
	}))

	notifier := &recordingNotifier{}
	s := NewScheduler(memos, notifier, nil, WithClock(func() time.Time { return now }))

	notified, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.Equal(t, map[uuid.UUID]int{alice: 2, bob: 1}, notifier.calls)
}

func TestRunOnceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("count failure", func(t *testing.T) {
		s := NewScheduler(counterFunc(func(context.Context, time.Time) (map[uuid.UUID]int, error) {
			return nil, errors.New("db down")
		}), &recordingNotifier{}, nil)

		notified, err := s.RunOnce(ctx)
		require.Error(t, err)
		assert.Zero(t, notified)
	})

	t.Run("delivery failure does not stop the run", func(t *testing.T) {
		ok, broken := uuid.New(), uuid.New()
		notifier := &recordingNotifier{fail: broken}
		s := NewScheduler(counterFunc(func(context.Context, time.Time) (map[uuid.UUID]int, error) {
			return map[uuid.UUID]int{ok: 3, broken: 1}, nil
		}), notifier, nil)

		notified, err := s.RunOnce(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mailbox full")
		assert.Equal(t, 1, notified)
		assert.Equal(t, 3, notifier.calls[ok])
	})
}

func TestStartStop(t *testing.T) {
	counter := counterFunc(func(context.Context, time.Time) (map[uuid.UUID]int, error) {
		return nil, nil
	})

	t.Run("invalid cron expression", func(t *testing.T) {
		s := NewScheduler(counter, NewLogNotifier(nil), nil)
		err := s.Start(context.Background(), "every day")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid reminder schedule")
	})

	t.Run("start twice", func(t *testing.T) {
		s := NewScheduler(counter, NewLogNotifier(nil), nil)
		require.NoError(t, s.Start(context.Background(), "0 9 * * *"))
		defer s.Stop()

		assert.Error(t, s.Start(context.Background(), "0 9 * * *"))
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		s := NewScheduler(counter, NewLogNotifier(nil), nil)
		require.NoError(t, s.Start(context.Background(), "0 9 * * *"))
		s.Stop()
		s.Stop()
	})
}

func TestNewSchedulerPanics(t *testing.T) {
	assert.Panics(t, func() { NewScheduler(nil, NewLogNotifier(nil), nil) })
	assert.Panics(t, func() {
		NewScheduler(counterFunc(func(context.Context, time.Time) (map[uuid.UUID]int, error) { return nil, nil }), nil, nil)
	})
}
