package main

import (
	"context"
	"database/sql"
	"fmt"
)

// demoUserID owns the rows written by -seed-demo.
const demoUserID = "demo-user"

// seedDemoData inserts a small set of current-month expenses for presentations.
// Idempotent: will only run if the demo user has no expenses.
func seedDemoData(ctx context.Context, db *sql.DB) (int64, error) {
	var cnt int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense WHERE user_id = $1`, demoUserID).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("checking expense count: %w", err)
	}
	if cnt > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Dates are clamped to the first of the month so every row lands in the current month.
	const demoExpenses = `
	INSERT INTO expense (user_id, category, payment_method, amount, date) VALUES
	($1, 'rent', 'bank transfer', 1500.00, date_trunc('month', CURRENT_DATE)::date),
	($1, 'food', 'card', 96.72, GREATEST(CURRENT_DATE - 6, date_trunc('month', CURRENT_DATE)::date)),
	($1, 'food', 'cash', 64.11, GREATEST(CURRENT_DATE - 4, date_trunc('month', CURRENT_DATE)::date)),
	($1, 'travel', 'card', 45.00, GREATEST(CURRENT_DATE - 3, date_trunc('month', CURRENT_DATE)::date)),
	($1, 'entertainment', 'upi', 28.50, GREATEST(CURRENT_DATE - 2, date_trunc('month', CURRENT_DATE)::date)),
	($1, 'food', 'upi', 132.39, GREATEST(CURRENT_DATE - 1, date_trunc('month', CURRENT_DATE)::date)),
	($1, 'travel', 'cash', 22.30, CURRENT_DATE)
	`
	res, err := tx.ExecContext(ctx, demoExpenses, demoUserID)
	if err != nil {
		return 0, fmt.Errorf("seeding demo expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
