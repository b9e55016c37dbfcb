package main

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
)

type dashboardService struct {
	store  reportStore
	cache  *responseCache
	logger *slog.Logger
}

func newDashboardService(store reportStore, cache *responseCache, logger *slog.Logger) *dashboardService {
	return &dashboardService{store: store, cache: cache, logger: logger}
}

// Summary aggregates the user's local expenses for one calendar month.
func (s *dashboardService) Summary(ctx context.Context, userID string, month, year int) (DashboardSummary, error) {
	key := dashboardCacheKey(userID, month, year)

	var cached DashboardSummary
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	expenses, err := s.store.ExpensesForMonth(ctx, userID, month, year)
	if err != nil {
		return DashboardSummary{}, &PersistenceError{Op: "dashboard summary", Err: err}
	}
	s.logger.Debug("expenses fetched for dashboard", "user_id", userID, "count", len(expenses))

	summary := summarizeExpenses(expenses)
	s.cache.set(ctx, key, summary, dashboardCacheTTL)
	return summary, nil
}

// totals accumulates decimal sums per key, remembering first-seen order.
type totals struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newTotals() *totals {
	return &totals{sums: make(map[string]decimal.Decimal)}
}

func (t *totals) add(key string, amount decimal.Decimal) {
	if _, ok := t.sums[key]; !ok {
		t.order = append(t.order, key)
	}
	t.sums[key] = t.sums[key].Add(amount)
}

// byAmountDesc returns keys ordered by total, largest first; ties keep first-seen order.
func (t *totals) byAmountDesc() []string {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.sums[keys[i]].GreaterThan(t.sums[keys[j]])
	})
	return keys
}

func summarizeExpenses(expenses []Expense) DashboardSummary {
	total := decimal.Zero
	byCategory := newTotals()
	byMethod := newTotals()
	byDate := newTotals()

	for _, e := range expenses {
		total = total.Add(e.Amount)
		byCategory.add(e.Category, e.Amount)
		byMethod.add(e.PaymentMethod, e.Amount)
		byDate.add(e.Date.Format("2006-01-02"), e.Amount)
	}

	summary := DashboardSummary{
		TotalSpent:           total.InexactFloat64(),
		TopPaymentMethods:    make([]MethodAmount, 0, len(byMethod.order)),
		SpendingByCategory:   make([]CategoryAmount, 0, len(byCategory.order)),
		SpendingOverTime:     make([]DateAmount, 0, len(byDate.order)),
		OverbudgetCategories: []string{},
	}

	categories := byCategory.byAmountDesc()
	if len(categories) > 0 {
		summary.TopCategory = categories[0]
	}
	for _, c := range categories {
		summary.SpendingByCategory = append(summary.SpendingByCategory, CategoryAmount{
			Category: c,
			Amount:   byCategory.sums[c].InexactFloat64(),
		})
	}

	for _, m := range byMethod.byAmountDesc() {
		summary.TopPaymentMethods = append(summary.TopPaymentMethods, MethodAmount{
			Method: m,
			Amount: byMethod.sums[m].InexactFloat64(),
		})
	}

	dates := append([]string(nil), byDate.order...)
	sort.Strings(dates)
	for _, d := range dates {
		summary.SpendingOverTime = append(summary.SpendingOverTime, DateAmount{
			Date:   d,
			Amount: byDate.sums[d].InexactFloat64(),
		})
	}

	return summary
}
