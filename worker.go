package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

type userReconciler interface {
	Reconcile(ctx context.Context, userID string) (ReconcileResult, error)
}

type reconcilePublisher interface {
	Publish(ctx context.Context, userID string) error
}

// reconcileWorker periodically reconciles every known user. With a publisher
// it only enqueues requests; otherwise it reconciles in-process.
type reconcileWorker struct {
	store       reportStore
	reconciler  userReconciler
	publisher   reconcilePublisher
	interval    time.Duration
	concurrency int
	logger      *slog.Logger
}

// runOnce performs a single sweep over all known users.
func (w *reconcileWorker) runOnce(ctx context.Context) error {
	users, err := w.store.KnownUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if w.publisher != nil {
		for _, id := range users {
			if err := w.publisher.Publish(ctx, id); err != nil {
				return fmt.Errorf("enqueueing %s: %w", id, err)
			}
		}
		w.logger.Info("reconcile requests enqueued", "users", len(users))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range users {
		id := id
		g.Go(func() error {
			// persistence failures are logged by the reconciler and must not stop the sweep
			_, _ = w.reconciler.Reconcile(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.logger.Info("reconcile sweep complete", "users", len(users))
	return nil
}

// run sweeps immediately and then every interval until ctx is cancelled.
func (w *reconcileWorker) run(ctx context.Context) error {
	if err := w.runOnce(ctx); err != nil {
		w.logger.Error("initial reconcile sweep failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.logger.Error("reconcile sweep failed", "error", err)
				continue
			}
			w.logger.Debug("next reconcile sweep", "at", now.Add(w.interval).Format(time.RFC3339))
		}
	}
}

// handleRequest is the queue consumer callback.
func (w *reconcileWorker) handleRequest(ctx context.Context, req ReconcileRequest) error {
	_, err := w.reconciler.Reconcile(ctx, req.UserID)
	return err
}
