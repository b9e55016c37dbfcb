package main

import (
	"context"
	"database/sql"
	"fmt"
)

// reportStore is the persistence the handlers, reconciler and worker share.
type reportStore interface {
	// InsertReportIfAbsent creates r unless (user, month, year) already exists.
	InsertReportIfAbsent(ctx context.Context, r MonthlyReport) (created bool, err error)
	// UpsertReport creates r or overwrites the totals of the existing row.
	UpsertReport(ctx context.Context, r MonthlyReport) (created bool, err error)
	RecentReports(ctx context.Context, userID string, limit int) ([]MonthlyReport, error)
	ExpensesForMonth(ctx context.Context, userID string, month, year int) ([]Expense, error)
	KnownUserIDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type pgStore struct {
	db *sql.DB
}

func newPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) InsertReportIfAbsent(ctx context.Context, r MonthlyReport) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO monthly_reports
			(user_id, month, month_number, year, total_spent, top_category, overbudget_categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT unique_user_month_year DO NOTHING
	`, r.UserID, r.Month, monthNumber(r.Month), r.Year, r.TotalSpent, r.TopCategory, r.OverbudgetCategories)
	if err != nil {
		return false, fmt.Errorf("inserting report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return n == 1, nil
}

func (s *pgStore) UpsertReport(ctx context.Context, r MonthlyReport) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// xmax is zero only for freshly inserted tuples
	var created bool
	err = tx.QueryRowContext(ctx, `
		INSERT INTO monthly_reports
			(user_id, month, month_number, year, total_spent, top_category, overbudget_categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT unique_user_month_year DO UPDATE SET
			total_spent = EXCLUDED.total_spent,
			top_category = EXCLUDED.top_category,
			overbudget_categories = EXCLUDED.overbudget_categories,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`, r.UserID, r.Month, monthNumber(r.Month), r.Year, r.TotalSpent, r.TopCategory, r.OverbudgetCategories).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upserting report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return created, nil
}

func (s *pgStore) RecentReports(ctx context.Context, userID string, limit int) ([]MonthlyReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, month, year, total_spent, top_category, overbudget_categories
		FROM monthly_reports
		WHERE user_id = $1
		ORDER BY year DESC, month_number DESC, month DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	reports := make([]MonthlyReport, 0, limit)
	for rows.Next() {
		var r MonthlyReport
		if err := rows.Scan(&r.ID, &r.UserID, &r.Month, &r.Year, &r.TotalSpent, &r.TopCategory, &r.OverbudgetCategories); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *pgStore) ExpensesForMonth(ctx context.Context, userID string, month, year int) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, payment_method, amount, date
		FROM expense
		WHERE user_id = $1
		  AND EXTRACT(MONTH FROM date) = $2
		  AND EXTRACT(YEAR FROM date) = $3
		ORDER BY date, id
	`, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.PaymentMethod, &e.Amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *pgStore) KnownUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM monthly_reports
		UNION
		SELECT user_id FROM expense
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
