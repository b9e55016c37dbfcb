package main

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *flexFloat {
	f := flexFloat(v)
	return &f
}

func TestReportService_SaveIsIdempotent(t *testing.T) {
	store := &memStore{}
	svc := newReportService(store, nil, discardLogger())
	ctx := context.Background()

	req := SaveReportRequest{
		UserID:               "u1",
		Month:                "October",
		Year:                 2025,
		TotalSpent:           floatPtr(812.4),
		TopCategory:          "food",
		OverbudgetCategories: []string{"food", "travel"},
	}

	outcome, err := svc.Save(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, SaveCreated, outcome)

	req.TotalSpent = floatPtr(1)
	outcome, err = svc.Save(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, SaveAlreadyExists, outcome)

	require.Len(t, store.reports, 1)
	got := store.reports[0]
	assert.True(t, got.TotalSpent.Equal(decimal.RequireFromString("812.4")))
	assert.Equal(t, "food, travel", got.OverbudgetCategories)
}

func TestReportService_SaveDefaults(t *testing.T) {
	store := &memStore{}
	svc := newReportService(store, nil, discardLogger())

	_, err := svc.Save(context.Background(), SaveReportRequest{UserID: " u1 ", Month: " 10 ", Year: 2025})
	require.NoError(t, err)

	got, ok := store.report("u1", "10", 2025)
	require.True(t, ok)
	assert.True(t, got.TotalSpent.IsZero())
	assert.Equal(t, "", got.TopCategory)
	assert.Equal(t, "", got.OverbudgetCategories)
}

func TestReportService_SaveMissingFields(t *testing.T) {
	svc := newReportService(&memStore{}, nil, discardLogger())

	for name, req := range map[string]SaveReportRequest{
		"no user":  {Month: "July", Year: 2025},
		"no month": {UserID: "u1", Year: 2025},
		"no year":  {UserID: "u1", Month: "July"},
		"blank":    {UserID: "  ", Month: "July", Year: 2025},
	} {
		_, err := svc.Save(context.Background(), req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.Equal(t, "Missing required fields", verr.Message)
	}
}

func TestReportService_SavePersistenceError(t *testing.T) {
	svc := newReportService(&memStore{err: errors.New("disk full")}, nil, discardLogger())

	_, err := svc.Save(context.Background(), SaveReportRequest{UserID: "u1", Month: "July", Year: 2025})
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestReportService_RecentReturnsLatestThree(t *testing.T) {
	store := &memStore{}
	svc := newReportService(store, nil, discardLogger())
	ctx := context.Background()

	for _, r := range []struct {
		month string
		year  int
	}{
		{"March", 2025}, {"December", 2024}, {"October", 2025}, {"January", 2025}, {"July", 2025},
	} {
		_, err := svc.Save(ctx, SaveReportRequest{UserID: "u1", Month: monthLabel(r.month), Year: flexInt(r.year)})
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, SaveReportRequest{UserID: "u2", Month: "November", Year: 2025})
	require.NoError(t, err)

	got, err := svc.Recent(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "October", got[0].Month)
	assert.Equal(t, "July", got[1].Month)
	assert.Equal(t, "March", got[2].Month)
	for _, r := range got {
		assert.Equal(t, "None", r.OverbudgetCategories)
	}
}

func TestReportService_RecentUnknownUser(t *testing.T) {
	svc := newReportService(&memStore{}, nil, discardLogger())

	got, err := svc.Recent(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMonthlyReport_Summary(t *testing.T) {
	r := MonthlyReport{
		Month: "July", Year: 2025,
		TotalSpent:           decimal.RequireFromString("99.95"),
		TopCategory:          "food",
		OverbudgetCategories: "food, rent",
	}

	assert.Equal(t, ReportSummary{
		Month: "July", Year: 2025, TotalSpent: 99.95,
		TopCategory: "food", OverbudgetCategories: "food, rent",
	}, r.Summary())
}
