package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fetch is the result of one call to the remote service: either data, or
// Err explaining why the service was unavailable.
type Fetch[T any] struct {
	Data T
	Err  error
}

// Available reports whether the call produced usable data.
func (f Fetch[T]) Available() bool { return f.Err == nil }

// spendingSource is the remote expense/budget service as the reconciler sees it.
type spendingSource interface {
	Expenses(ctx context.Context, userID string) Fetch[[]RemoteExpense]
	BudgetStatus(ctx context.Context, userID string) Fetch[[]BudgetStatus]
}

// remoteClient talks to the remote expense/budget HTTP API.
type remoteClient struct {
	baseURL string
	http    *http.Client
}

func newRemoteClient(baseURL string, timeout time.Duration) *remoteClient {
	return &remoteClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *remoteClient) Expenses(ctx context.Context, userID string) Fetch[[]RemoteExpense] {
	var out []RemoteExpense
	err := c.getJSON(ctx, "/expenses/getExpenses", userID, &out)
	return Fetch[[]RemoteExpense]{Data: out, Err: err}
}

func (c *remoteClient) BudgetStatus(ctx context.Context, userID string) Fetch[[]BudgetStatus] {
	var out []BudgetStatus
	err := c.getJSON(ctx, "/budget/status", userID, &out)
	return Fetch[[]BudgetStatus]{Data: out, Err: err}
}

func (c *remoteClient) getJSON(ctx context.Context, path, userID string, dst any) error {
	endpoint := c.baseURL + path + "?" + url.Values{"userId": {userID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
