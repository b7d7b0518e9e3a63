package aggregate

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"fintrack/internal/core"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func instant(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000", s)
	if err != nil {
		panic(err)
	}
	return t
}

func cents(c int64) core.Money { return core.Money{Cents: c} }

func tx(id string, date time.Time, amount int64, cat core.Category, typ core.TransactionType) core.Transaction {
	return core.Transaction{ID: id, UserID: "u1", Date: date, Description: id, Amount: cents(amount), Category: cat, Type: typ}
}

func budget(id string, cat core.Category, amount int64, start, end time.Time) core.Budget {
	return core.Budget{ID: id, UserID: "u1", Name: id, Category: cat, Amount: cents(amount), StartDate: start, EndDate: end}
}

// julyFixture holds two groceries expenses, one income and one dining
// expense stored with a negative sign.
func julyFixture() []core.Transaction {
	return []core.Transaction{
		tx("t1", day("2024-07-03"), 3000, core.Groceries, core.Expense),
		tx("t2", day("2024-07-15"), 2000, core.Groceries, core.Expense),
		tx("t3", day("2024-07-10"), 10000, core.IncomeCategory, core.Income),
		tx("t4", day("2024-07-20"), -2000, core.DiningOut, core.Expense),
	}
}

func TestMatchesCategory(t *testing.T) {
	tests := []struct {
		name   string
		tx     core.Category
		budget core.Category
		want   bool
	}{
		{"overall matches anything", core.Travel, core.Overall, true},
		{"overall matches uncategorized", core.Uncategorized, core.Overall, true},
		{"exact", core.Groceries, core.Groceries, true},
		{"different", core.Groceries, core.DiningOut, false},
		{"case sensitive", core.Category("groceries"), core.Groceries, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesCategory(tt.tx, tt.budget); got != tt.want {
				t.Errorf("MatchesCategory(%q, %q) = %v, want %v", tt.tx, tt.budget, got, tt.want)
			}
		})
	}
}

func TestInInterval(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"last millisecond before start", instant("2024-06-30T23:59:59.999"), false},
		{"start of first day", instant("2024-07-01T00:00:00.000"), true},
		{"mid interval", day("2024-07-15"), true},
		{"end of last day", instant("2024-07-31T23:59:59.999"), true},
		{"day after end", instant("2024-08-01T00:00:00.000"), false},
		{"zero instant", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InInterval(tt.at, start, end, time.UTC); got != tt.want {
				t.Errorf("InInterval(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestInIntervalInvertedIsEmpty(t *testing.T) {
	start, end := day("2024-07-31"), day("2024-07-01")
	for _, at := range []time.Time{day("2024-07-01"), day("2024-07-15"), day("2024-07-31")} {
		if InInterval(at, start, end, time.UTC) {
			t.Errorf("InInterval(%v) on inverted interval = true", at)
		}
	}
}

func TestInIntervalSameDay(t *testing.T) {
	d := day("2024-07-04")
	if !InInterval(instant("2024-07-04T18:30:00.000"), d, d, time.UTC) {
		t.Error("single-day interval should contain any instant of that day")
	}
}

func TestInIntervalReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 7, 31, 0, 0, 0, 0, loc)
	// 22:30 UTC on June 30 is 00:30 on July 1 in UTC+2.
	at := time.Date(2024, 6, 30, 22, 30, 0, 0, time.UTC)
	if !InInterval(at, start, end, loc) {
		t.Error("instant should fall on July 1 in the reference location")
	}

	utcStart := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	utcEnd := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	if InInterval(at, utcStart, utcEnd, time.UTC) {
		t.Error("instant should fall on June 30 in UTC")
	}
	// Bounds are normalized in the reference location: July 1 00:00 UTC+2
	// is June 30 in UTC, so the same instant is inside.
	if !InInterval(at, start, end, time.UTC) {
		t.Error("start bound should normalize to June 30 in UTC")
	}
}

func TestNewIntervalZeroBound(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		field      string
	}{
		{"zero start", time.Time{}, day("2024-07-31"), "startDate"},
		{"zero end", day("2024-07-01"), time.Time{}, "endDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInterval(tt.start, tt.end, time.UTC)
			var pe *core.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *core.ParseError, got %v", err)
			}
			if pe.Field != tt.field {
				t.Errorf("Field = %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

func TestComputeSpent(t *testing.T) {
	txs := julyFixture()
	start, end := day("2024-07-01"), day("2024-07-31")

	tests := []struct {
		name   string
		budget core.Budget
		want   int64
	}{
		{"groceries", budget("b1", core.Groceries, 40000, start, end), 5000},
		{"overall uses abs of negative expense", budget("b2", core.Overall, 100000, start, end), 7000},
		{"no match", budget("b3", core.Travel, 1000, start, end), 0},
		{"income never counted", budget("b4", core.IncomeCategory, 1000, start, end), 0},
		{"inverted interval", budget("b5", core.Overall, 1000, end, start), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSpent(tt.budget, txs, time.UTC)
			if err != nil {
				t.Fatalf("ComputeSpent: %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("ComputeSpent = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestComputeSpentBoundary(t *testing.T) {
	txs := []core.Transaction{
		tx("a", instant("2024-06-30T23:59:59.999"), 100, core.Groceries, core.Expense),
		tx("b", instant("2024-07-01T00:00:00.000"), 200, core.Groceries, core.Expense),
	}
	got, err := ComputeSpent(budget("b", core.Groceries, 1000, day("2024-07-01"), day("2024-07-31")), txs, time.UTC)
	if err != nil {
		t.Fatalf("ComputeSpent: %v", err)
	}
	if got.Cents != 200 {
		t.Errorf("ComputeSpent = %d, want 200", got.Cents)
	}
}

func TestComputeSpentUnparseableBudget(t *testing.T) {
	b := budget("b", core.Overall, 1000, time.Time{}, day("2024-07-31"))
	_, err := ComputeSpent(b, julyFixture(), time.UTC)
	var pe *core.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *core.ParseError, got %v", err)
	}
}

func TestComputeSpentDoesNotMutate(t *testing.T) {
	txs := julyFixture()
	before := append([]core.Transaction(nil), txs...)
	b := budget("b", core.Overall, 1000, day("2024-07-01"), day("2024-07-31"))
	if _, err := ComputeSpent(b, txs, time.UTC); err != nil {
		t.Fatal(err)
	}
	for i := range txs {
		if txs[i] != before[i] {
			t.Fatalf("transaction %d mutated: %+v", i, txs[i])
		}
	}
	if b.Spent.Cents != 0 {
		t.Errorf("budget mutated: spent = %d", b.Spent.Cents)
	}
}

// randomTransactions returns a reproducible mixed set spanning several months,
// with a few undated rows.
func randomTransactions(r *rand.Rand, n int) []core.Transaction {
	base := day("2024-05-01")
	txs := make([]core.Transaction, n)
	for i := range txs {
		cat := core.TransactionCategories[r.Intn(len(core.TransactionCategories))]
		typ := core.Expense
		if r.Intn(4) == 0 {
			typ = core.Income
		}
		amount := int64(r.Intn(20000) - 5000)
		date := base.Add(time.Duration(r.Int63n(int64(120 * 24 * time.Hour))))
		if r.Intn(25) == 0 {
			date = time.Time{}
		}
		txs[i] = tx(string(rune('a'+i%26))+string(rune('0'+i%10)), date, amount, cat, typ)
	}
	return txs
}

func randomBudgets(r *rand.Rand, n int) []core.Budget {
	base := day("2024-05-01")
	cats := append([]core.Category{core.Overall}, core.TransactionCategories...)
	budgets := make([]core.Budget, n)
	for i := range budgets {
		start := base.AddDate(0, 0, r.Intn(120))
		end := start.AddDate(0, 0, r.Intn(60)-10)
		budgets[i] = budget("b", cats[r.Intn(len(cats))], int64(r.Intn(50000)), start, end)
	}
	return budgets
}

func TestSpendIndexAgreesWithComputeSpent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		txs := randomTransactions(r, 200)
		ix := NewSpendIndex(txs, time.UTC)
		for _, b := range randomBudgets(r, 30) {
			want, err := ComputeSpent(b, txs, time.UTC)
			if err != nil {
				t.Fatalf("ComputeSpent: %v", err)
			}
			got, err := ix.Spent(b)
			if err != nil {
				t.Fatalf("Spent: %v", err)
			}
			if got != want {
				t.Fatalf("round %d: index spent %d, naive %d for %+v", round, got.Cents, want.Cents, b)
			}
		}
	}
}

func TestComputeSpentPermutationInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	txs := randomTransactions(r, 150)
	budgets := randomBudgets(r, 20)

	for _, b := range budgets {
		want, _ := ComputeSpent(b, txs, time.UTC)
		shuffled := append([]core.Transaction(nil), txs...)
		for i := 0; i < 5; i++ {
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			got, _ := ComputeSpent(b, shuffled, time.UTC)
			if got != want {
				t.Fatalf("spent changed under permutation: %d != %d", got.Cents, want.Cents)
			}
		}
	}
}

func TestComputeSpentOverallBoundsCategories(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	txs := randomTransactions(r, 300)
	start, end := day("2024-05-01"), day("2024-08-31")

	overall, _ := ComputeSpent(budget("all", core.Overall, 0, start, end), txs, time.UTC)
	var sum int64
	for _, cat := range core.TransactionCategories {
		s, _ := ComputeSpent(budget("c", cat, 0, start, end), txs, time.UTC)
		if s.Cents < 0 {
			t.Fatalf("negative spent for %s", cat)
		}
		sum += s.Cents
	}
	if sum != overall.Cents {
		t.Errorf("sum of category spends %d != overall %d", sum, overall.Cents)
	}
}

func TestComputeBudgets(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	budgets := []core.Budget{
		budget("groceries", core.Groceries, 4000, start, end),
		budget("broken", core.Overall, 1000, time.Time{}, end),
		budget("inverted", core.DiningOut, 1000, end, start),
		budget("overall", core.Overall, 6000, start, end),
		budget("zero", core.Travel, 0, start, end),
		budget("zero-spent", core.DiningOut, 0, start, end),
	}
	views := ComputeBudgets(budgets, julyFixture(), DefaultOptions())
	if len(views) != len(budgets) {
		t.Fatalf("got %d views, want %d", len(views), len(budgets))
	}

	tests := []struct {
		idx       int
		status    Status
		spent     int64
		remaining int64
		overspent bool
		level     Level
		progress  float64
		period    string
	}{
		{0, StatusOK, 5000, -1000, true, LevelOver, 100, "Jul 1 - Jul 31, 2024"},
		{1, StatusDateError, 0, 1000, false, LevelOK, 0, PeriodUnavailable},
		{2, StatusEmptyInterval, 0, 1000, false, LevelOK, 0, "Jul 31 - Jul 1, 2024"},
		{3, StatusOK, 7000, -1000, true, LevelOver, 100, "Jul 1 - Jul 31, 2024"},
		{4, StatusOK, 0, 0, false, LevelOK, 0, "Jul 1 - Jul 31, 2024"},
		{5, StatusOK, 2000, -2000, true, LevelOver, 0, "Jul 1 - Jul 31, 2024"},
	}
	for _, tt := range tests {
		v := views[tt.idx]
		t.Run(v.Budget.ID, func(t *testing.T) {
			if v.Budget.ID != budgets[tt.idx].ID {
				t.Fatalf("order not preserved: got %s", v.Budget.ID)
			}
			if v.Status != tt.status {
				t.Errorf("Status = %s, want %s", v.Status, tt.status)
			}
			if v.Budget.Spent.Cents != tt.spent {
				t.Errorf("Spent = %d, want %d", v.Budget.Spent.Cents, tt.spent)
			}
			if v.Remaining.Cents != tt.remaining {
				t.Errorf("Remaining = %d, want %d", v.Remaining.Cents, tt.remaining)
			}
			if v.Overspent != tt.overspent {
				t.Errorf("Overspent = %v, want %v", v.Overspent, tt.overspent)
			}
			if v.Level != tt.level {
				t.Errorf("Level = %s, want %s", v.Level, tt.level)
			}
			if v.Progress != tt.progress {
				t.Errorf("Progress = %v, want %v", v.Progress, tt.progress)
			}
			if v.Period != tt.period {
				t.Errorf("Period = %q, want %q", v.Period, tt.period)
			}
		})
	}

	if views[1].Err == nil || views[1].Warning == "" {
		t.Error("date error view should carry its error and warning")
	}
	if views[2].Warning != core.ErrEmptyInterval.Error() {
		t.Errorf("empty interval warning = %q", views[2].Warning)
	}
	if budgets[0].Spent.Cents != 0 {
		t.Error("input budget was mutated")
	}
}

func TestComputeSpentNearAmountBound(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	txs := []core.Transaction{
		tx("a", day("2024-07-03"), core.MaxAmountCents, core.Groceries, core.Expense),
		tx("b", day("2024-07-04"), -core.MaxAmountCents, core.Groceries, core.Expense),
	}
	b := budget("g", core.Groceries, 100, start, end)

	want := 2 * core.MaxAmountCents
	got, err := ComputeSpent(b, txs, time.UTC)
	if err != nil || got.Cents != want {
		t.Fatalf("ComputeSpent = %d, %v, want %d", got.Cents, err, want)
	}
	if s := Summarize(txs, DefaultOptions()); s.TotalExpense.Cents != want {
		t.Errorf("TotalExpense = %d, want %d", s.TotalExpense.Cents, want)
	}
}

func TestComputeBudgetsWarningLevel(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	views := ComputeBudgets([]core.Budget{budget("g", core.Groceries, 6000, start, end)}, julyFixture(), DefaultOptions())
	v := views[0]
	if v.Level != LevelWarning {
		t.Errorf("Level = %s, want %s (spent 5000 of 6000)", v.Level, LevelWarning)
	}
	if v.Overspent {
		t.Error("should not be overspent")
	}
}

func TestClassify(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	budgets := []core.Budget{
		budget("c1", core.Groceries, 1, start, end),
		budget("o1", core.Overall, 1, start, end),
		budget("c2", core.Travel, 1, start, end),
		budget("o2", core.Overall, 1, start, end),
		budget("c3", core.Uncategorized, 1, start, end),
	}
	overall, category := Classify(budgets)

	if len(overall)+len(category) != len(budgets) {
		t.Fatalf("partition lost budgets: %d + %d != %d", len(overall), len(category), len(budgets))
	}
	assertIDs(t, "overall", overall, "o1", "o2")
	assertIDs(t, "category", category, "c1", "c2", "c3")
}

func TestClassifyEmpty(t *testing.T) {
	overall, category := Classify(nil)
	if overall == nil || category == nil {
		t.Error("Classify should return empty, non-nil slices")
	}
	if len(overall) != 0 || len(category) != 0 {
		t.Error("Classify(nil) should be empty")
	}
}

func TestClassifyViews(t *testing.T) {
	start, end := day("2024-07-01"), day("2024-07-31")
	views := ComputeBudgets([]core.Budget{
		budget("o1", core.Overall, 1, start, end),
		budget("c1", core.Groceries, 1, start, end),
	}, nil, DefaultOptions())
	overall, category := ClassifyViews(views)
	if len(overall) != 1 || overall[0].Budget.ID != "o1" {
		t.Errorf("overall = %+v", overall)
	}
	if len(category) != 1 || category[0].Budget.ID != "c1" {
		t.Errorf("category = %+v", category)
	}
}

func assertIDs(t *testing.T, label string, got []core.Budget, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d budgets, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("%s[%d] = %s, want %s", label, i, got[i].ID, want[i])
		}
	}
}
