package selection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func memo(status domain.ReviewStatus, created, next time.Duration, evaluation string) domain.Memo {
	return domain.Memo{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		OriginalText:   "text",
		EvaluationText: evaluation,
		CreatedAt:      base.Add(created),
		Review: domain.ReviewState{
			Status:         status,
			EaseFactor:     2.5,
			NextReviewDate: base.Add(next),
		},
	}
}

func ids(memos []domain.Memo) []uuid.UUID {
	out := make([]uuid.UUID, len(memos))
	for i, m := range memos {
		out[i] = m.ID
	}
	return out
}

func identity(int, func(i, j int)) {}

func TestDue(t *testing.T) {
	t.Parallel()

	overdue := memo(domain.StatusReview, -10*time.Hour, -5*time.Hour, "")
	dueNow := memo(domain.StatusReview, -9*time.Hour, 0, "")
	mostOverdue := memo(domain.StatusReview, -8*time.Hour, -48*time.Hour, "")
	future := memo(domain.StatusReview, -7*time.Hour, time.Millisecond, "")
	newPast := memo(domain.StatusNew, -6*time.Hour, -72*time.Hour, "")

	all := []domain.Memo{overdue, future, dueNow, newPast, mostOverdue}

	got := Due(all, base, 10)
	assert.Equal(t, []uuid.UUID{mostOverdue.ID, overdue.ID, dueNow.ID}, ids(got))

	got = Due(all, base, 2)
	assert.Equal(t, []uuid.UUID{mostOverdue.ID, overdue.ID}, ids(got))

	assert.Empty(t, Due(all, base, 0))
}

func TestDueTiesAreStable(t *testing.T) {
	t.Parallel()

	later := memo(domain.StatusReview, -1*time.Hour, -time.Hour, "")
	earlier := memo(domain.StatusReview, -2*time.Hour, -time.Hour, "")

	first := Due([]domain.Memo{later, earlier}, base, 10)
	second := Due([]domain.Memo{earlier, later}, base, 10)
	assert.Equal(t, []uuid.UUID{earlier.ID, later.ID}, ids(first))
	assert.Equal(t, ids(first), ids(second))
}

func TestNew(t *testing.T) {
	t.Parallel()

	a := memo(domain.StatusNew, -3*time.Hour, 0, "")
	b := memo(domain.StatusNew, -1*time.Hour, 0, "")
	c := memo(domain.StatusNew, -2*time.Hour, 0, "")
	reviewed := memo(domain.StatusReview, -4*time.Hour, -time.Hour, "")

	got := New([]domain.Memo{b, reviewed, a, c}, 2)
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(got))
}

func TestNewest(t *testing.T) {
	t.Parallel()

	a := memo(domain.StatusNew, -3*time.Hour, 0, "")
	b := memo(domain.StatusReview, -1*time.Hour, -time.Hour, "")
	c := memo(domain.StatusNew, -2*time.Hour, 0, "")
	input := []domain.Memo{a, b, c}

	assert.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, ids(Newest(input, 10, 0)))
	assert.Equal(t, []uuid.UUID{c.ID}, ids(Newest(input, 1, 1)))
	assert.Empty(t, Newest(input, 5, 3))
	assert.Empty(t, Newest(input, 0, 0))

	// The input slice keeps its order.
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(input))
}

func TestSample(t *testing.T) {
	t.Parallel()

	var pool []domain.Memo
	for i := 0; i < 8; i++ {
		pool = append(pool, memo(domain.StatusReview, time.Duration(i)*time.Minute, time.Hour, ""))
	}
	pool = append(pool, memo(domain.StatusNew, 0, 0, ""))

	got := Sample(pool, 5, identity)
	require.Len(t, got, 5)
	for _, m := range got {
		assert.NotEqual(t, domain.StatusNew, m.Review.Status)
	}

	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	got = Sample(pool, 3, reverse)
	assert.Equal(t, []uuid.UUID{pool[7].ID, pool[6].ID, pool[5].ID}, ids(got))

	// Input order is untouched
	assert.Equal(t, domain.StatusNew, pool[8].Review.Status)
	assert.Equal(t, base, pool[0].CreatedAt)

	assert.Len(t, Sample(pool, 50, identity), 8, "sampling never repeats a memo")
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a := memo(domain.StatusReview, 0, 0, "")
	b := memo(domain.StatusNew, 0, 0, "")
	c := memo(domain.StatusNew, time.Minute, 0, "")

	got := Merge([]domain.Memo{a, b}, []domain.Memo{b, c, a})
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(got))

	empty := Merge(nil, nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestEvaluable(t *testing.T) {
	t.Parallel()

	withRef := memo(domain.StatusReview, 0, 0, "ni hao")
	blank := memo(domain.StatusReview, 0, 0, " \t")
	none := memo(domain.StatusNew, 0, 0, "")

	got := Evaluable([]domain.Memo{withRef, blank, none})
	assert.Equal(t, []uuid.UUID{withRef.ID}, ids(got))
}
