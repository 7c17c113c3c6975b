// Package selection holds the pure predicates and orderings that decide which
// memos make up a review session. Store backends that cannot express these in
// a query use the functions directly; the others mirror them in SQL.
package selection

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/domain"
)

// ShuffleFunc permutes n elements using swap, with the same contract as
// math/rand.Shuffle. Injected so tests can make sampling deterministic.
type ShuffleFunc func(n int, swap func(i, j int))

// Due returns the memos that have been graded at least once and whose next
// review date is at or before now, most overdue first, capped at limit.
// Ties are broken by creation time and then ID so the order is stable.
func Due(memos []domain.Memo, now time.Time, limit int) []domain.Memo {
	due := filter(memos, func(m domain.Memo) bool { return m.Review.IsDue(now) })
	slices.SortStableFunc(due, func(a, b domain.Memo) int {
		if c := a.Review.NextReviewDate.Compare(b.Review.NextReviewDate); c != 0 {
			return c
		}
		return compareCreated(a, b)
	})
	return capped(due, limit)
}

// New returns never-graded memos, oldest first, capped at limit.
func New(memos []domain.Memo, limit int) []domain.Memo {
	fresh := filter(memos, func(m domain.Memo) bool { return m.Review.IsNew() })
	slices.SortStableFunc(fresh, compareCreated)
	return capped(fresh, limit)
}

// Newest orders memos by creation time, newest first, and returns the page
// that starts after offset and holds at most limit memos.
func Newest(memos []domain.Memo, limit, offset int) []domain.Memo {
	sorted := slices.Clone(memos)
	slices.SortStableFunc(sorted, func(a, b domain.Memo) int {
		return compareCreated(b, a)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return []domain.Memo{}
	}
	return capped(sorted[offset:], limit)
}

// Reviewed returns every memo that is not new, in input order.
func Reviewed(memos []domain.Memo) []domain.Memo {
	return filter(memos, func(m domain.Memo) bool { return !m.Review.IsNew() })
}

// Sample shuffles a copy of candidates and keeps at most k of them, which is
// sampling without replacement. New memos are dropped first since they have
// no interval worth reinforcing.
func Sample(candidates []domain.Memo, k int, shuffle ShuffleFunc) []domain.Memo {
	pool := Reviewed(candidates)
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return capped(pool, k)
}

// Merge concatenates lists, keeping only the first occurrence of each memo ID.
func Merge(lists ...[]domain.Memo) []domain.Memo {
	seen := make(map[uuid.UUID]struct{})
	var merged []domain.Memo
	for _, list := range lists {
		for _, m := range list {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	if merged == nil {
		return []domain.Memo{}
	}
	return merged
}

// Evaluable keeps the memos that can be scored in a pronunciation session.
func Evaluable(memos []domain.Memo) []domain.Memo {
	return filter(memos, func(m domain.Memo) bool { return m.Evaluable() })
}

func filter(memos []domain.Memo, keep func(domain.Memo) bool) []domain.Memo {
	out := make([]domain.Memo, 0, len(memos))
	for _, m := range memos {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func capped(memos []domain.Memo, limit int) []domain.Memo {
	if limit < 0 {
		limit = 0
	}
	if len(memos) > limit {
		return memos[:limit]
	}
	return memos
}

func compareCreated(a, b domain.Memo) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}
