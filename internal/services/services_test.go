package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ports"
	"fintrack/internal/storage/memory"
)

const user = "u1"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustCreateTx(t *testing.T, repo ports.Repository, date string, cents int64, cat core.Category, typ core.TransactionType) core.Transaction {
	t.Helper()
	created, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:      user,
		Date:        day(date),
		Description: string(cat) + " " + date,
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Type:        typ,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return created
}

func mustCreateBudget(t *testing.T, repo ports.Repository, name string, cat core.Category, cents int64, start, end string) core.Budget {
	t.Helper()
	created, err := repo.CreateBudget(context.Background(), core.Budget{
		UserID:    user,
		Name:      name,
		Category:  cat,
		Amount:    core.Money{Cents: cents},
		StartDate: day(start),
		EndDate:   day(end),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	return created
}

// julyRepo holds the Groceries/Overall scenario: Groceries spent 50.00,
// Overall spent 70.00.
func julyRepo(t *testing.T) *memory.Store {
	t.Helper()
	repo := memory.New()
	mustCreateTx(t, repo, "2024-07-03", 3000, core.Groceries, core.Expense)
	mustCreateTx(t, repo, "2024-07-15", 2000, core.Groceries, core.Expense)
	mustCreateTx(t, repo, "2024-07-10", 10000, core.IncomeCategory, core.Income)
	mustCreateTx(t, repo, "2024-07-20", -2000, core.DiningOut, core.Expense)
	mustCreateBudget(t, repo, "Food", core.Groceries, 6000, "2024-07-01", "2024-07-31")
	mustCreateBudget(t, repo, "Everything", core.Overall, 50000, "2024-07-01", "2024-07-31")
	mustCreateBudget(t, repo, "Backwards", core.Shopping, 1000, "2024-07-31", "2024-07-01")
	return repo
}

type failingRepo struct {
	ports.Repository
	err error
}

func (f failingRepo) ListBudgets(context.Context, string) ([]core.Budget, error) {
	return nil, f.err
}

func TestDashboard(t *testing.T) {
	svc := NewDashboardService(julyRepo(t), aggregate.DefaultOptions())

	d, err := svc.Dashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Summary.TotalIncome.Cents != 10000 || d.Summary.TotalExpense.Cents != 7000 || d.Summary.Net.Cents != 3000 {
		t.Errorf("unexpected totals %+v", d.Summary)
	}
	if len(d.Budgets) != 3 {
		t.Fatalf("got %d budgets, want 3", len(d.Budgets))
	}
	want := map[string]int64{"Food": 5000, "Everything": 7000, "Backwards": 0}
	for _, v := range d.Budgets {
		if v.Budget.Spent.Cents != want[v.Budget.Name] {
			t.Errorf("%s spent = %d, want %d", v.Budget.Name, v.Budget.Spent.Cents, want[v.Budget.Name])
		}
	}
	if d.Budgets[2].Status != aggregate.StatusEmptyInterval {
		t.Errorf("inverted budget status = %s", d.Budgets[2].Status)
	}
}

func TestDashboardBudgetLimit(t *testing.T) {
	opts := aggregate.DefaultOptions()
	opts.DashboardBudgetLimit = 1
	d, err := NewDashboardService(julyRepo(t), opts).Dashboard(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Budgets) != 1 || d.Budgets[0].Budget.Name != "Food" {
		t.Errorf("unexpected budgets %+v", d.Budgets)
	}
}

func TestDashboardFetchFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := NewDashboardService(failingRepo{Repository: julyRepo(t), err: boom}, aggregate.DefaultOptions())
	if _, err := svc.Dashboard(context.Background(), user); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestDashboardMissingUser(t *testing.T) {
	svc := NewDashboardService(memory.New(), aggregate.DefaultOptions())
	if _, err := svc.Dashboard(context.Background(), " "); !errors.Is(err, core.ErrMissingUser) {
		t.Fatalf("err = %v, want ErrMissingUser", err)
	}
}

func TestCategoryChart(t *testing.T) {
	png, err := NewDashboardService(julyRepo(t), aggregate.DefaultOptions()).CategoryChart(context.Background(), user)
	if err != nil {
		t.Fatalf("CategoryChart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestBudgetList(t *testing.T) {
	svc := NewBudgetService(julyRepo(t), aggregate.DefaultOptions())
	groups, err := svc.List(context.Background(), user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(groups.Overall) != 1 || groups.Overall[0].Budget.Spent.Cents != 7000 {
		t.Errorf("unexpected overall group %+v", groups.Overall)
	}
	if len(groups.Category) != 2 || groups.Category[0].Budget.Name != "Food" || groups.Category[1].Budget.Name != "Backwards" {
		t.Errorf("unexpected category group %+v", groups.Category)
	}
}

func TestBudgetCreateComputesSpend(t *testing.T) {
	svc := NewBudgetService(julyRepo(t), aggregate.DefaultOptions())
	v, err := svc.Create(context.Background(), core.Budget{
		UserID:    user,
		Name:      "Eating out",
		Category:  core.DiningOut,
		Amount:    core.Money{Cents: 1500},
		Spent:     core.Money{Cents: 999},
		StartDate: day("2024-07-01"),
		EndDate:   day("2024-07-31"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.Budget.Spent.Cents != 2000 || !v.Overspent || v.Level != aggregate.LevelOver {
		t.Errorf("unexpected view %+v", v)
	}

	if _, err := svc.Create(context.Background(), core.Budget{UserID: user, Name: "x", Category: "Pets"}); !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestBudgetDeleteOtherUser(t *testing.T) {
	repo := julyRepo(t)
	budgets, _ := repo.ListBudgets(context.Background(), user)
	svc := NewBudgetService(repo, aggregate.DefaultOptions())
	if err := svc.Delete(context.Background(), "intruder", budgets[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

type recordingPublisher struct {
	synced []string
	tips   []string
	err    error
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, _, id string) error {
	p.synced = append(p.synced, id)
	return p.err
}

func (p *recordingPublisher) PublishSavingsTips(_ context.Context, _, id string) error {
	p.tips = append(p.tips, id)
	return p.err
}

func TestTransactionCreatePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, time.UTC)

	created, err := svc.Create(context.Background(), core.Transaction{
		UserID: user, Date: day("2024-07-01"), Description: "Coffee",
		Amount: core.Money{Cents: 350}, Category: core.DiningOut, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pub.synced) != 1 || pub.synced[0] != created.ID {
		t.Errorf("published %v, want [%s]", pub.synced, created.ID)
	}
}

func TestTransactionCreatePublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("circuit open")}
	svc := NewTransactionService(memory.New(), pub, time.UTC)
	_, err := svc.Create(context.Background(), core.Transaction{
		UserID: user, Date: day("2024-07-01"), Description: "Coffee",
		Amount: core.Money{Cents: 350}, Category: core.DiningOut, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
}

func TestTransactionCreateValidation(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, time.UTC)
	_, err := svc.Create(context.Background(), core.Transaction{UserID: user, Description: "no date", Category: core.Other, Type: core.Expense})
	var pe *core.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *core.ParseError", err)
	}
}

func TestTransactionImportExport(t *testing.T) {
	pub := &recordingPublisher{}
	repo := memory.New()
	svc := NewTransactionService(repo, pub, time.UTC)

	in := "Date,Description,Amount,Category,Type\n" +
		"2024-07-03,Supermarket,30.00,Groceries,expense\n" +
		"not a date,Broken,1.00,Other,expense\n" +
		"2024-07-10,Salary,100.00,Income,income\n"
	res, err := svc.Import(context.Background(), user, strings.NewReader(in), nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Imported) != 2 || len(res.Rejected) != 1 || res.Rejected[0].Line != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.synced) != 2 {
		t.Errorf("published %d sync messages, want 2", len(pub.synced))
	}

	var out bytes.Buffer
	if err := svc.Export(context.Background(), user, &out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := "Date,Description,Amount,Category,Type\n" +
		"2024-07-10,Salary,100.00,Income,income\n" +
		"2024-07-03,Supermarket,30.00,Groceries,expense\n"
	if out.String() != want {
		t.Errorf("export =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestTransactionImportLogsSharedKeys(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	svc := NewTransactionService(memory.New(), nil, time.UTC)
	in := "Date,Description,Amount,Category,Type\n2024-07-03,Supermarket,30.00,Groceries,expense\n"
	if _, err := svc.Import(context.Background(), user, strings.NewReader(in), nil); err != nil {
		t.Fatalf("Import: %v", err)
	}

	for _, want := range []string{`"component":"import"`, `"user_id":"u1"`, `"count":1`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("import log missing %s: %s", want, buf.String())
		}
	}
}

type fakeTips struct {
	tips  string
	err   error
	calls int
}

func (f *fakeTips) SavingsTips(context.Context, core.SavingsGoal) (string, error) {
	f.calls++
	return f.tips, f.err
}

func newGoal(t *testing.T, repo ports.Repository) core.SavingsGoal {
	t.Helper()
	g, err := repo.CreateSavingsGoal(context.Background(), core.SavingsGoal{
		UserID: user, Name: "Bike", TargetAmount: core.Money{Cents: 50000},
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRequestTipsQueued(t *testing.T) {
	repo := memory.New()
	goal := newGoal(t, repo)
	pub := &recordingPublisher{}
	gen := &fakeTips{tips: "- save"}

	res, err := NewSavingsService(repo, pub, gen).RequestTips(context.Background(), user, goal.ID)
	if err != nil {
		t.Fatalf("RequestTips: %v", err)
	}
	if !res.Queued || gen.calls != 0 || len(pub.tips) != 1 {
		t.Errorf("queued=%v generator calls=%d published=%v", res.Queued, gen.calls, pub.tips)
	}
}

func TestRequestTipsInline(t *testing.T) {
	tests := []struct {
		name string
		pub  TipsPublisher
	}{
		{"no publisher", nil},
		{"publisher failing", &recordingPublisher{err: errors.New("circuit open")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.New()
			goal := newGoal(t, repo)
			res, err := NewSavingsService(repo, tt.pub, &fakeTips{tips: "- save"}).RequestTips(context.Background(), user, goal.ID)
			if err != nil {
				t.Fatalf("RequestTips: %v", err)
			}
			if res.Queued || res.Goal.AITips != "- save" {
				t.Errorf("unexpected result %+v", res)
			}
			stored, _ := repo.GetSavingsGoal(context.Background(), user, goal.ID)
			if stored.AITips != "- save" {
				t.Errorf("stored tips = %q", stored.AITips)
			}
		})
	}
}

func TestGenerateTipsErrors(t *testing.T) {
	repo := memory.New()
	goal := newGoal(t, repo)

	if _, err := NewSavingsService(repo, nil, nil).GenerateTips(context.Background(), user, goal.ID); !errors.Is(err, ai.ErrUnavailable) {
		t.Errorf("err = %v, want ai.ErrUnavailable", err)
	}
	if _, err := NewSavingsService(repo, nil, &fakeTips{}).GenerateTips(context.Background(), "intruder", goal.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	boom := errors.New("quota")
	if _, err := NewSavingsService(repo, nil, &fakeTips{err: boom}).GenerateTips(context.Background(), user, goal.ID); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

type fakeInsights struct {
	gotRules string
	gotTxs   int
}

func (f *fakeInsights) SpendingInsights(_ context.Context, txs []core.Transaction, rules string, _ *time.Location) (string, error) {
	f.gotRules, f.gotTxs = rules, len(txs)
	return "insights", nil
}

func (f *fakeInsights) AnswerQuery(_ context.Context, _ string, txs []core.Transaction, _ *time.Location) (string, error) {
	f.gotTxs = len(txs)
	return "answer", nil
}

func TestInsightsService(t *testing.T) {
	gen := &fakeInsights{}
	svc := NewInsightsService(julyRepo(t), gen, time.UTC)

	got, err := svc.Insights(context.Background(), user, "skip rent")
	if err != nil || got != "insights" || gen.gotRules != "skip rent" || gen.gotTxs != 4 {
		t.Errorf("Insights = %q, %v (rules %q, txs %d)", got, err, gen.gotRules, gen.gotTxs)
	}
	if got, err := svc.Query(context.Background(), user, "how much?"); err != nil || got != "answer" {
		t.Errorf("Query = %q, %v", got, err)
	}

	if _, err := NewInsightsService(memory.New(), nil, nil).Query(context.Background(), user, "q"); !errors.Is(err, ai.ErrUnavailable) {
		t.Errorf("err = %v, want ai.ErrUnavailable", err)
	}
}

func TestTransactionImportNothingValid(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, time.UTC)
	in := "Date,Description,Amount,Category\nbad,Broken,1.00,Other\n"
	res, err := svc.Import(context.Background(), user, strings.NewReader(in), nil)
	if !errors.Is(err, importer.ErrNoTransactions) {
		t.Fatalf("err = %v, want ErrNoTransactions", err)
	}
	if len(res.Rejected) != 1 {
		t.Errorf("rejected = %v", res.Rejected)
	}
}
