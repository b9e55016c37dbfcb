package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one spending event read from the local expense table.
type Expense struct {
	ID            int             `json:"id"`
	UserID        string          `json:"user_id"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
}

// MonthlyReport is a stored per-user, per-month spending snapshot.
type MonthlyReport struct {
	ID                   int
	UserID               string
	Month                string
	Year                 int
	TotalSpent           decimal.Decimal
	TopCategory          string
	OverbudgetCategories string
}

// ReportSummary is the public shape of a stored report.
type ReportSummary struct {
	Month                string  `json:"month"`
	Year                 int     `json:"year"`
	TotalSpent           float64 `json:"total_spent"`
	TopCategory          string  `json:"top_category"`
	OverbudgetCategories string  `json:"overbudget_categories"`
}

func (r MonthlyReport) Summary() ReportSummary {
	over := r.OverbudgetCategories
	if over == "" {
		over = "None"
	}
	return ReportSummary{
		Month:                r.Month,
		Year:                 r.Year,
		TotalSpent:           r.TotalSpent.InexactFloat64(),
		TopCategory:          r.TopCategory,
		OverbudgetCategories: over,
	}
}

// SuggestRequest is the body of POST /api/suggest.
type SuggestRequest struct {
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
}

// SuggestResponse carries the canned tips for a category.
type SuggestResponse struct {
	Category    string   `json:"category"`
	Amount      float64  `json:"amount"`
	Suggestions []string `json:"suggestions"`
}

// SaveReportRequest is the body of POST /api/save-report.
type SaveReportRequest struct {
	UserID               string     `json:"user_id" binding:"required"`
	Month                monthLabel `json:"month" binding:"required"`
	Year                 flexInt    `json:"year" binding:"required"`
	TotalSpent           *flexFloat `json:"total_spent"`
	TopCategory          string     `json:"top_category"`
	OverbudgetCategories []string   `json:"overbudget_categories"`
}

// DashboardSummary is the aggregate returned by GET /api/dashboard/summary.
type DashboardSummary struct {
	TotalSpent           float64          `json:"totalSpent"`
	TopCategory          string           `json:"topCategory"`
	TopPaymentMethods    []MethodAmount   `json:"topPaymentMethods"`
	SpendingByCategory   []CategoryAmount `json:"spendingByCategory"`
	SpendingOverTime     []DateAmount     `json:"spendingOverTime"`
	OverbudgetCategories []string         `json:"overbudgetCategories"`
}

type MethodAmount struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type DateAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// RemoteExpense is an expense as served by the remote expense service.
type RemoteExpense struct {
	Category string    `json:"category"`
	Amount   flexFloat `json:"amount"`
	Date     string    `json:"date"`
}

// BudgetStatus is one entry of the remote budget status list.
type BudgetStatus struct {
	Category   string    `json:"category"`
	Percentage flexFloat `json:"percentage"`
}

// monthLabel accepts either a JSON string ("October") or a number (10).
type monthLabel string

func (m *monthLabel) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = monthLabel(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("month must be a string or number: %w", err)
	}
	*m = monthLabel(n.String())
	return nil
}

// flexInt accepts a JSON integer or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*i = flexInt(n)
	return nil
}

// flexFloat accepts a JSON number or a numeric string. NaN and infinities are rejected.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexFloat(v)
	return nil
}
