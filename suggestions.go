package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// othersKey is the fallback bucket for categories without their own tips.
const othersKey = "others"

//go:embed suggestions.json
var defaultSuggestionsJSON []byte

// Suggester maps a normalized category to a fixed list of tips.
// It is read-only after construction.
type Suggester struct {
	table map[string][]string
}

// NewSuggester builds a Suggester from table, which must contain the "others" bucket.
func NewSuggester(table map[string][]string) (*Suggester, error) {
	if _, ok := table[othersKey]; !ok {
		return nil, fmt.Errorf("suggestion table has no %q bucket", othersKey)
	}
	normalized := make(map[string][]string, len(table))
	for k, v := range table {
		normalized[normalizeCategory(k)] = append([]string(nil), v...)
	}
	return &Suggester{table: normalized}, nil
}

// loadSuggester reads the table from path, or the embedded default when path is empty.
func loadSuggester(path string) (*Suggester, error) {
	raw := defaultSuggestionsJSON
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading suggestions file: %w", err)
		}
		raw = b
	}

	var table map[string][]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parsing suggestions: %w", err)
	}
	return NewSuggester(table)
}

// Lookup returns the normalized category and its tips, falling back to "others".
func (s *Suggester) Lookup(category string) (string, []string) {
	category = normalizeCategory(category)
	if tips, ok := s.table[category]; ok {
		return category, tips
	}
	return category, s.table[othersKey]
}

// Suggest validates a suggestion request and resolves it.
func (s *Suggester) Suggest(req SuggestRequest) (SuggestResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return SuggestResponse{}, &ValidationError{Message: "Amount must be a number"}
	}

	category, tips := s.Lookup(req.Category)
	if category == "" || amount <= 0 {
		return SuggestResponse{}, &ValidationError{Message: "Category and valid amount required"}
	}

	return SuggestResponse{
		Category:    category,
		Amount:      amount,
		Suggestions: tips,
	}, nil
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// parseAmount accepts a JSON number or numeric string. An absent amount is zero.
func parseAmount(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("amount has type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount %v is not finite", f)
	}
	return f, nil
}
