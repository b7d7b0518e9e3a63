package aggregate

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// SpendIndex pre-sorts expense transactions by date, per category and
// overall, with prefix sums of their magnitudes. A budget lookup is two
// binary searches instead of a scan of the whole transaction list.
type SpendIndex struct {
	loc        *time.Location
	all        series
	byCategory map[core.Category]*series
	skipped    int
}

type entry struct {
	at    time.Time
	cents int64
}

type series struct {
	times  []time.Time
	prefix []int64 // prefix[i] is the sum of the first i entries
}

// NewSpendIndex indexes the expense transactions of txs. Transactions with
// a zero date cannot belong to any interval and are only counted.
func NewSpendIndex(txs []core.Transaction, loc *time.Location) *SpendIndex {
	if loc == nil {
		loc = time.UTC
	}
	var all []entry
	grouped := make(map[core.Category][]entry)
	skipped := 0
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		if t.Date.IsZero() {
			skipped++
			continue
		}
		e := entry{at: t.Date, cents: t.Amount.Abs().Cents}
		all = append(all, e)
		grouped[t.Category] = append(grouped[t.Category], e)
	}

	ix := &SpendIndex{
		loc:        loc,
		all:        newSeries(all),
		byCategory: make(map[core.Category]*series, len(grouped)),
		skipped:    skipped,
	}
	for cat, entries := range grouped {
		s := newSeries(entries)
		ix.byCategory[cat] = &s
	}
	return ix
}

func newSeries(entries []entry) series {
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	s := series{
		times:  make([]time.Time, len(entries)),
		prefix: make([]int64, len(entries)+1),
	}
	for i, e := range entries {
		s.times[i] = e.at
		s.prefix[i+1] = s.prefix[i] + e.cents
	}
	return s
}

func (s *series) sumBetween(start, end time.Time) int64 {
	lo := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(start) })
	hi := sort.Search(len(s.times), func(i int) bool { return s.times[i].After(end) })
	if hi <= lo {
		return 0
	}
	return s.prefix[hi] - s.prefix[lo]
}

// Spent returns the same value as ComputeSpent for the indexed transactions.
func (ix *SpendIndex) Spent(b core.Budget) (core.Money, error) {
	iv, err := NewInterval(b.StartDate, b.EndDate, ix.loc)
	if err != nil {
		return core.Money{}, err
	}
	if iv.Empty() {
		return core.Money{}, nil
	}
	if b.Category == core.Overall {
		return core.Money{Cents: ix.all.sumBetween(iv.Start, iv.End)}, nil
	}
	s, ok := ix.byCategory[b.Category]
	if !ok {
		return core.Money{}, nil
	}
	return core.Money{Cents: s.sumBetween(iv.Start, iv.End)}, nil
}

// Skipped is the number of expense transactions left out for lack of a date.
func (ix *SpendIndex) Skipped() int {
	return ix.skipped
}
