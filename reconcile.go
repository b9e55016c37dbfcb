package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileOutcome describes what a reconciliation run did.
type ReconcileOutcome int

const (
	ReconcileCreated ReconcileOutcome = iota + 1
	ReconcileUpdated
	ReconcileSkippedExpensesUnavailable
	ReconcileSkippedNoExpenses
)

func (o ReconcileOutcome) String() string {
	switch o {
	case ReconcileCreated:
		return "created"
	case ReconcileUpdated:
		return "updated"
	case ReconcileSkippedExpensesUnavailable:
		return "skipped: expenses unavailable"
	case ReconcileSkippedNoExpenses:
		return "skipped: no expenses this month"
	default:
		return "unknown"
	}
}

// ReconcileResult carries the outcome and, when a row was written, the report.
type ReconcileResult struct {
	Outcome ReconcileOutcome
	Report  MonthlyReport
}

// Reconciler recomputes a user's current-month report from the remote service.
type Reconciler struct {
	store  reportStore
	remote spendingSource
	cache  *responseCache
	now    func() time.Time
	logger *slog.Logger
}

func NewReconciler(store reportStore, remote spendingSource, cache *responseCache, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		remote: remote,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
}

// Reconcile fetches the user's expenses and budget status, aggregates the
// current month and upserts the report. An expense fetch failure aborts
// without writing; a budget fetch failure only empties the over-budget list.
// The only error returned is a *PersistenceError.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (ReconcileResult, error) {
	userID = strings.TrimSpace(userID)
	now := r.now()
	month, year := now.Month().String(), now.Year()
	logger := r.logger.With("user_id", userID, "month", month, "year", year)

	expenses := r.remote.Expenses(ctx, userID)
	if !expenses.Available() {
		logger.Error("failed to fetch expenses", "error", expenses.Err)
		return ReconcileResult{Outcome: ReconcileSkippedExpensesUnavailable}, nil
	}
	logger.Debug("expenses fetched", "count", len(expenses.Data))

	current := make([]RemoteExpense, 0, len(expenses.Data))
	for _, e := range expenses.Data {
		t, err := parseRemoteDate(e.Date)
		if err != nil {
			logger.Warn("skipping expense with unparseable date", "date", e.Date, "error", err)
			continue
		}
		if sameMonth(t, now) {
			current = append(current, e)
		}
	}

	if len(current) == 0 {
		logger.Info("no expenses this month, report left unchanged")
		return ReconcileResult{Outcome: ReconcileSkippedNoExpenses}, nil
	}

	total, topCategory := aggregateRemoteExpenses(current)

	var overbudget []string
	budgets := r.remote.BudgetStatus(ctx, userID)
	if budgets.Available() {
		overbudget = overBudgetCategories(budgets.Data)
	} else {
		logger.Warn("budget status unavailable, continuing without it", "error", budgets.Err)
	}

	report := MonthlyReport{
		UserID:               userID,
		Month:                month,
		Year:                 year,
		TotalSpent:           total,
		TopCategory:          topCategory,
		OverbudgetCategories: strings.Join(overbudget, ", "),
	}

	created, err := r.store.UpsertReport(ctx, report)
	if err != nil {
		logger.Error("error updating report", "error", err)
		return ReconcileResult{}, &PersistenceError{Op: "upsert report", Err: err}
	}
	r.cache.invalidate(ctx, reportsCacheKey(userID))

	outcome := ReconcileUpdated
	if created {
		outcome = ReconcileCreated
	}
	logger.Info("report reconciled",
		"outcome", outcome.String(),
		"total_spent", total.StringFixed(2),
		"top_category", topCategory,
		"overbudget", len(overbudget),
	)
	return ReconcileResult{Outcome: outcome, Report: report}, nil
}

// aggregateRemoteExpenses sums amounts and picks the category with the largest
// total. Categories are trimmed and lower-cased; ties go to the first seen.
func aggregateRemoteExpenses(expenses []RemoteExpense) (decimal.Decimal, string) {
	total := decimal.Zero
	totals := make(map[string]decimal.Decimal)
	var order []string

	for _, e := range expenses {
		amount := decimal.NewFromFloat(float64(e.Amount))
		total = total.Add(amount)

		cat := normalizeCategory(e.Category)
		if _, seen := totals[cat]; !seen {
			order = append(order, cat)
		}
		totals[cat] = totals[cat].Add(amount)
	}

	var top string
	best := decimal.Zero
	for i, cat := range order {
		if i == 0 || totals[cat].GreaterThan(best) {
			top, best = cat, totals[cat]
		}
	}
	return total, top
}

func overBudgetCategories(statuses []BudgetStatus) []string {
	var out []string
	for _, b := range statuses {
		if float64(b.Percentage) >= 100 {
			out = append(out, b.Category)
		}
	}
	return out
}
