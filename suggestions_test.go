package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSuggester_KnownAndUnknownCategories(t *testing.T) {
	s, err := loadSuggester("")
	require.NoError(t, err)

	others := s.table[othersKey]
	require.NotEmpty(t, others)

	for _, cat := range []string{"food", "travel", "entertainment", "rent"} {
		_, tips := s.Lookup(cat)
		assert.Equal(t, s.table[cat], tips, cat)
		assert.NotEqual(t, others, tips, cat)
	}

	for _, cat := range []string{"groceries", "pets", "x", "fooood"} {
		_, tips := s.Lookup(cat)
		assert.Equal(t, others, tips, cat)
	}
}

func TestSuggester_NormalizesCategory(t *testing.T) {
	s, err := loadSuggester("")
	require.NoError(t, err)

	cat, tips := s.Lookup("  FOOD ")
	assert.Equal(t, "food", cat)
	assert.Equal(t, s.table["food"], tips)
}

func TestSuggester_Suggest(t *testing.T) {
	s, err := NewSuggester(map[string][]string{
		"food":   {"cook"},
		"others": {"track"},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		category string
		amount   string
		wantErr  string
		wantTips []string
	}{
		{"number amount", "Food", `12.5`, "", []string{"cook"}},
		{"string amount", "food", `"40"`, "", []string{"cook"}},
		{"fallback bucket", "gadgets", `3`, "", []string{"track"}},
		{"zero amount", "food", `0`, "Category and valid amount required", nil},
		{"negative amount", "gadgets", `-5`, "Category and valid amount required", nil},
		{"missing amount", "food", ``, "Category and valid amount required", nil},
		{"non numeric string", "food", `"lots"`, "Amount must be a number", nil},
		{"null amount", "food", `null`, "Amount must be a number", nil},
		{"boolean amount", "food", `true`, "Amount must be a number", nil},
		{"NaN string", "food", `"NaN"`, "Amount must be a number", nil},
		{"blank category", "   ", `10`, "Category and valid amount required", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := SuggestRequest{Category: tc.category}
			if tc.amount != "" {
				req.Amount = json.RawMessage(tc.amount)
			}

			resp, err := s.Suggest(req)
			if tc.wantErr != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.wantErr, verr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTips, resp.Suggestions)
			assert.Greater(t, resp.Amount, 0.0)
		})
	}
}

func TestNewSuggester_RequiresOthersBucket(t *testing.T) {
	_, err := NewSuggester(map[string][]string{"food": {"cook"}})
	assert.Error(t, err)
}

func TestLoadSuggester_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Coffee":["brew at home"],"others":["budget"]}`), 0o600))

	s, err := loadSuggester(path)
	require.NoError(t, err)

	_, tips := s.Lookup("coffee")
	assert.Equal(t, []string{"brew at home"}, tips)
}
