package main

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// memStore is an in-memory reportStore for unit tests.
type memStore struct {
	mu       sync.Mutex
	reports  []MonthlyReport
	expenses []Expense
	err      error
}

func (m *memStore) Ping(context.Context) error { return m.err }

func (m *memStore) find(userID, month string, year int) int {
	for i, r := range m.reports {
		if r.UserID == userID && r.Month == month && r.Year == year {
			return i
		}
	}
	return -1
}

func (m *memStore) InsertReportIfAbsent(_ context.Context, r MonthlyReport) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.find(r.UserID, r.Month, r.Year) >= 0 {
		return false, nil
	}
	r.ID = len(m.reports) + 1
	m.reports = append(m.reports, r)
	return true, nil
}

func (m *memStore) UpsertReport(_ context.Context, r MonthlyReport) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if i := m.find(r.UserID, r.Month, r.Year); i >= 0 {
		m.reports[i].TotalSpent = r.TotalSpent
		m.reports[i].TopCategory = r.TopCategory
		m.reports[i].OverbudgetCategories = r.OverbudgetCategories
		return false, nil
	}
	r.ID = len(m.reports) + 1
	m.reports = append(m.reports, r)
	return true, nil
}

func (m *memStore) RecentReports(_ context.Context, userID string, limit int) ([]MonthlyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []MonthlyReport
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return monthNumber(out[i].Month) > monthNumber(out[j].Month)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ExpensesForMonth(_ context.Context, userID string, month, year int) ([]Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Expense, 0)
	for _, e := range m.expenses {
		if e.UserID == userID && int(e.Date.Month()) == month && e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) KnownUserIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[string]bool{}
	var ids []string
	for _, r := range m.reports {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	for _, e := range m.expenses {
		if !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) report(userID, month string, year int) (MonthlyReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(userID, month, year); i >= 0 {
		return m.reports[i], true
	}
	return MonthlyReport{}, false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
