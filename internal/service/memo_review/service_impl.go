package memo_review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/shabelingo/shabelingo-api/internal/domain/selection"
	"github.com/shabelingo/shabelingo-api/internal/domain/srs"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
	"github.com/shabelingo/shabelingo-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// DefaultLimits returns the caps used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		DueLimit:     20,
		NewLimit:     10,
		RandomLimit:  20,
		RandomWindow: 50,
		MaxLimit:     100,
		QueryTimeout: 5 * time.Second,
	}
}

// Option configures the service.
type Option func(*serviceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// WithShuffle replaces the permutation used to order random sessions.
func WithShuffle(fn selection.ShuffleFunc) Option {
	return func(s *serviceImpl) { s.shuffle = fn }
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	memoStore  store.MemoStore
	srsService srs.Service
	limits     Limits
	now        func() time.Time
	shuffle    selection.ShuffleFunc
	logger     *slog.Logger
}

// NewService creates a new Service implementation. A non-positive MaxLimit
// or RandomWindow falls back to DefaultLimits.
func NewService(
	memoStore store.MemoStore,
	srsService srs.Service,
	limits Limits,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if memoStore == nil {
		panic("memoStore cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultLimits()
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = defaults.MaxLimit
	}
	if limits.RandomWindow <= 0 {
		limits.RandomWindow = defaults.RandomWindow
	}

	s := &serviceImpl{
		memoStore:  memoStore,
		srsService: srsService,
		limits:     limits,
		now:        time.Now,
		shuffle:    rand.Shuffle,
		logger:     logger.With(slog.String("component", "memo_review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits implements Service.
func (s *serviceImpl) Limits() Limits {
	return s.limits
}

// DailySession implements Service.
func (s *serviceImpl) DailySession(ctx context.Context, userID uuid.UUID, req DailyRequest) (Session, error) {
	const op = "daily_session"
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now().UTC()
	session := Session{Mode: req.Mode, Memos: []domain.Memo{}, GeneratedAt: now}

	mode, err := resolveMode(op, req.Mode)
	if err != nil {
		return session, err
	}
	session.Mode = mode

	dueLimit, err := s.clampLimit(op, "due_limit", req.DueLimit)
	if err != nil {
		return session, err
	}
	newLimit, err := s.clampLimit(op, "new_limit", req.NewLimit)
	if err != nil {
		return session, err
	}

	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	// Both queries must finish before anything is merged, so a failure in
	// either yields no session at all.
	var due, fresh []*domain.Memo
	g, gctx := errgroup.WithContext(qctx)
	if dueLimit > 0 {
		g.Go(func() error {
			memos, err := s.memoStore.FindDue(gctx, userID, now, dueLimit)
			due = memos
			return err
		})
	}
	if newLimit > 0 {
		g.Go(func() error {
			memos, err := s.memoStore.FindNew(gctx, userID, newLimit)
			fresh = memos
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("failed to retrieve daily session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return session, NewRetrievalError(op, err)
	}

	memos := selection.Merge(values(due), values(fresh))
	if mode == ModePronunciation {
		memos = selection.Evaluable(memos)
	}
	session.Memos = memos

	log.Debug("daily session selected",
		slog.String("user_id", userID.String()),
		slog.String("mode", string(mode)),
		slog.Int("due", len(due)),
		slog.Int("new", len(fresh)),
		slog.Int("total", len(memos)))
	return session, nil
}

// RandomSession implements Service.
func (s *serviceImpl) RandomSession(ctx context.Context, userID uuid.UUID, req RandomRequest) (Session, error) {
	const op = "random_session"
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now().UTC()
	session := Session{Mode: req.Mode, Memos: []domain.Memo{}, GeneratedAt: now}

	mode, err := resolveMode(op, req.Mode)
	if err != nil {
		return session, err
	}
	session.Mode = mode

	limit, err := s.clampLimit(op, "limit", req.Limit)
	if err != nil {
		return session, err
	}
	if limit == 0 {
		return session, nil
	}

	qctx, cancel := s.queryContext(ctx)
	defer cancel()

	window := max(s.limits.RandomWindow, limit)
	candidates, err := s.memoStore.SampleReviewed(qctx, userID, window)
	if err == nil {
		err = qctx.Err()
	}
	if err != nil {
		log.Error("failed to retrieve random session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return session, NewRetrievalError(op, err)
	}

	memos := selection.Sample(values(candidates), limit, s.shuffle)
	if mode == ModePronunciation {
		memos = selection.Evaluable(memos)
	}
	session.Memos = memos

	log.Debug("random session selected",
		slog.String("user_id", userID.String()),
		slog.String("mode", string(mode)),
		slog.Int("candidates", len(candidates)),
		slog.Int("total", len(memos)))
	return session, nil
}

// SubmitGrade implements Service.
func (s *serviceImpl) SubmitGrade(
	ctx context.Context,
	userID, memoID uuid.UUID,
	sub GradeSubmission,
) (*ReviewResult, error) {
	return s.submit(ctx, "submit_grade", userID, memoID, sub.ExpectedVersion,
		func(*domain.Memo) (domain.Grade, error) { return sub.Grade, nil })
}

// SubmitPronunciation implements Service.
func (s *serviceImpl) SubmitPronunciation(
	ctx context.Context,
	userID, memoID uuid.UUID,
	sub PronunciationSubmission,
) (*ReviewResult, error) {
	return s.submit(ctx, "submit_pronunciation", userID, memoID, sub.ExpectedVersion,
		func(memo *domain.Memo) (domain.Grade, error) {
			if !memo.Evaluable() {
				return 0, ErrNotEvaluable
			}
			return srs.GradeFromScore(sub.Score)
		})
}

// submit loads and checks the memo, schedules it with the grade produced by
// gradeFor and writes the new state conditionally on the version it read.
func (s *serviceImpl) submit(
	ctx context.Context,
	op string,
	userID, memoID uuid.UUID,
	expectedVersion *int64,
	gradeFor func(*domain.Memo) (domain.Grade, error),
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("memo_id", memoID.String()))

	memo, err := s.memoStore.GetByID(ctx, memoID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("memo not found for review")
			return nil, ErrMemoNotFound
		}
		log.Error("failed to load memo", slog.String("error", err.Error()))
		return nil, NewSubmitError(op, "failed to load memo", err)
	}

	if memo.UserID != userID {
		log.Warn("user does not own memo", slog.String("owner_id", memo.UserID.String()))
		return nil, ErrMemoNotOwned
	}

	if expectedVersion != nil && *expectedVersion != memo.Version {
		log.Info("stale review submission",
			slog.Int64("expected_version", *expectedVersion),
			slog.Int64("current_version", memo.Version))
		return nil, fmt.Errorf("%w: expected version %d, found %d",
			ErrConcurrentUpdate, *expectedVersion, memo.Version)
	}

	grade, err := gradeFor(memo)
	if err != nil {
		if errors.Is(err, ErrNotEvaluable) {
			return nil, err
		}
		return nil, NewSubmitError(op, "invalid submission", err)
	}

	now := s.now().UTC()
	next, err := s.srsService.CalculateNextReview(memo.Review, grade, now)
	if err != nil {
		log.Warn("failed to calculate next review", slog.String("error", err.Error()))
		return nil, NewSubmitError(op, "invalid grade", err)
	}

	version, err := s.memoStore.UpdateReviewState(ctx, memo.ID, next, memo.Version)
	switch {
	case err == nil:
	case store.IsConflictError(err):
		log.Info("review lost a concurrent update", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	case store.IsNotFoundError(err):
		return nil, ErrMemoNotFound
	default:
		log.Error("failed to store review state", slog.String("error", err.Error()))
		return nil, NewSubmitError(op, "failed to store review state", err)
	}

	memo.ApplyReview(next, now)
	memo.Version = version

	log.Debug("review recorded",
		slog.Int("grade", int(grade)),
		slog.Float64("ease_factor", next.EaseFactor),
		slog.Int("interval", next.Interval),
		slog.Int("review_count", next.ReviewCount),
		slog.Time("next_review_date", next.NextReviewDate))

	return &ReviewResult{Memo: *memo, Grade: grade}, nil
}

// clampLimit validates a requested session size and clamps it to MaxLimit.
func (s *serviceImpl) clampLimit(op, name string, n int) (int, error) {
	if n < 0 {
		return 0, &ServiceError{
			Operation: op,
			Message:   "invalid request",
			Err:       fmt.Errorf("%w: %s must not be negative (got %d)", ErrInvalidArgument, name, n),
		}
	}
	return min(n, s.limits.MaxLimit), nil
}

func (s *serviceImpl) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.limits.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.limits.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// resolveMode defaults an empty mode to ModeText.
func resolveMode(op string, mode Mode) (Mode, error) {
	if mode == "" {
		return ModeText, nil
	}
	if !mode.Valid() {
		return "", &ServiceError{
			Operation: op,
			Message:   "invalid request",
			Err:       fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, mode),
		}
	}
	return mode, nil
}

func values(memos []*domain.Memo) []domain.Memo {
	out := make([]domain.Memo, 0, len(memos))
	for _, m := range memos {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}
