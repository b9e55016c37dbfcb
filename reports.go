package main

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// recentReportLimit is how many reports GET /api/reports/:user_id returns.
const recentReportLimit = 3

// SaveOutcome is the non-error result of saving a report directly.
type SaveOutcome int

const (
	SaveCreated SaveOutcome = iota + 1
	SaveAlreadyExists
)

type reportService struct {
	store  reportStore
	cache  *responseCache
	logger *slog.Logger
}

func newReportService(store reportStore, cache *responseCache, logger *slog.Logger) *reportService {
	return &reportService{store: store, cache: cache, logger: logger}
}

// Save stores a report unless one exists for (user, month, year), in which case
// nothing changes. Errors are *ValidationError or *PersistenceError.
func (s *reportService) Save(ctx context.Context, req SaveReportRequest) (SaveOutcome, error) {
	userID := strings.TrimSpace(req.UserID)
	month := strings.TrimSpace(string(req.Month))
	if userID == "" || month == "" || req.Year == 0 {
		return 0, &ValidationError{Message: "Missing required fields"}
	}
	// numeric labels must name a calendar month; 0 counts as absent
	if n, err := strconv.Atoi(month); err == nil && monthNumber(month) == 0 {
		if n == 0 {
			return 0, &ValidationError{Message: "Missing required fields"}
		}
		return 0, &ValidationError{Message: "invalid month"}
	}

	total := decimal.Zero
	if req.TotalSpent != nil {
		total = decimal.NewFromFloat(float64(*req.TotalSpent))
	}

	report := MonthlyReport{
		UserID:               userID,
		Month:                month,
		Year:                 int(req.Year),
		TotalSpent:           total,
		TopCategory:          req.TopCategory,
		OverbudgetCategories: strings.Join(req.OverbudgetCategories, ", "),
	}

	created, err := s.store.InsertReportIfAbsent(ctx, report)
	if err != nil {
		return 0, &PersistenceError{Op: "save report", Err: err}
	}
	if !created {
		return SaveAlreadyExists, nil
	}

	s.cache.invalidate(ctx, reportsCacheKey(userID))
	s.logger.Info("monthly report saved", "user_id", userID, "month", month, "year", report.Year)
	return SaveCreated, nil
}

// Recent returns the latest reports for userID, most recent first.
func (s *reportService) Recent(ctx context.Context, userID string) ([]ReportSummary, error) {
	userID = strings.TrimSpace(userID)
	key := reportsCacheKey(userID)

	var cached []ReportSummary
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	reports, err := s.store.RecentReports(ctx, userID, recentReportLimit)
	if err != nil {
		return nil, &PersistenceError{Op: "list reports", Err: err}
	}

	out := make([]ReportSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.Summary())
	}

	s.cache.set(ctx, key, out, reportsCacheTTL)
	return out, nil
}
