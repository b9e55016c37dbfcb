package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReportRequest_LenientFields(t *testing.T) {
	var req SaveReportRequest
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","month":10,"year":"2025","total_spent":"12.75"}`), &req))

	assert.Equal(t, monthLabel("10"), req.Month)
	assert.Equal(t, flexInt(2025), req.Year)
	require.NotNil(t, req.TotalSpent)
	assert.Equal(t, flexFloat(12.75), *req.TotalSpent)

	require.NoError(t, json.Unmarshal([]byte(`{"month":" October ","year":2025}`), &req))
	assert.Equal(t, monthLabel("October"), req.Month)

	assert.Error(t, json.Unmarshal([]byte(`{"year":"next"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"month":{}}`), &req))
}

func TestRemoteExpense_AmountAsString(t *testing.T) {
	var got []RemoteExpense
	require.NoError(t, json.Unmarshal([]byte(`[{"category":"food","amount":"4.5","date":"2025-07-01"},{"category":"rent","amount":900}]`), &got))

	assert.Equal(t, flexFloat(4.5), got[0].Amount)
	assert.Equal(t, flexFloat(900), got[1].Amount)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "reports:u1", reportsCacheKey("u1"))
	assert.Equal(t, "dashboard:u1:2025-07", dashboardCacheKey("u1", 7, 2025))
}

func TestResponseCache_NilIsMiss(t *testing.T) {
	var c *responseCache
	var dst []ReportSummary

	assert.False(t, c.get(context.Background(), "k", &dst))
	c.set(context.Background(), "k", dst, reportsCacheTTL)
	c.invalidate(context.Background(), "k")

	c = newResponseCache(nil, discardLogger())
	assert.False(t, c.get(context.Background(), "k", &dst))
}

func TestFlexFloat_RejectsNonFinite(t *testing.T) {
	for _, raw := range []string{`"NaN"`, `"nan"`, `"Inf"`, `"-Inf"`, `"Infinity"`, `"1e400"`} {
		var f flexFloat
		assert.Error(t, json.Unmarshal([]byte(raw), &f), raw)
	}

	var f flexFloat
	require.NoError(t, json.Unmarshal([]byte(`"-0.5"`), &f))
	assert.Equal(t, flexFloat(-0.5), f)
}
