package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leakbench/leakbench/internal/model"
)

func mustNormalizer(t *testing.T, cfg model.RatesConfig) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(cfg)
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	return n
}

func evidence(amount, currency string, date *model.Date) model.PriceEvidence {
	return model.PriceEvidence{
		RawAmount:    decimal.RequireFromString(amount),
		RawCurrency:  currency,
		ObservedDate: date,
	}
}

func TestNormalize_USDPassthrough(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{})

	ev := evidence("42.50", "USD", nil)
	n.Normalize(&ev)

	if ev.Excluded != "" {
		t.Fatalf("unexpected exclusion: %s", ev.Excluded)
	}
	if ev.NormalizedUSD == nil || ev.NormalizedUSD.String() != "42.5" {
		t.Errorf("normalized = %v, want 42.5", ev.NormalizedUSD)
	}
	if ev.Approximate {
		t.Error("USD passthrough must not be approximate")
	}
}

func TestNormalize_DatedRate(t *testing.T) {
	// Built-in table: EUR per USD is 0.85 from 2024-01, 0.92 from 2024-06
	n := mustNormalizer(t, model.RatesConfig{})

	tests := []struct {
		name   string
		date   model.Date
		amount string
		want   string
	}{
		{"early window", model.NewDate(2024, 3, 1), "85", "100"},
		{"later window", model.NewDate(2024, 7, 1), "92", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := tt.date
			ev := evidence(tt.amount, "EUR", &date)
			n.Normalize(&ev)
			if ev.Excluded != "" {
				t.Fatalf("unexpected exclusion: %s", ev.Excluded)
			}
			if ev.NormalizedUSD.String() != tt.want {
				t.Errorf("normalized = %s, want %s", ev.NormalizedUSD, tt.want)
			}
			if ev.Approximate {
				t.Error("dated conversion must not be approximate")
			}
		})
	}
}

func TestNormalize_UnambiguousSymbols(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{})
	date := model.NewDate(2024, 2, 1)

	euro := evidence("85", "€", &date)
	n.Normalize(&euro)
	if euro.NormalizedUSD == nil || euro.NormalizedUSD.String() != "100" {
		t.Errorf("€85 normalized = %v, want 100", euro.NormalizedUSD)
	}

	pound := evidence("79", "£", &date)
	n.Normalize(&pound)
	if pound.NormalizedUSD == nil || pound.NormalizedUSD.String() != "100" {
		t.Errorf("£79 normalized = %v, want 100", pound.NormalizedUSD)
	}
}

func TestNormalize_AmbiguousSymbolFailsClosed(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{})

	for _, symbol := range []string{"$", "¥"} {
		ev := evidence("10", symbol, nil)
		n.Normalize(&ev)
		if ev.Excluded != model.ExcludedUnknownCurrency {
			t.Errorf("%s: excluded = %q, want %q", symbol, ev.Excluded, model.ExcludedUnknownCurrency)
		}
		if ev.NormalizedUSD != nil {
			t.Errorf("%s: expected no normalized value", symbol)
		}
	}
}

func TestNormalize_ConfiguredSymbolMapping(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{
		SymbolCurrencies: map[string]string{"$": "USD", "¥": "CNY"},
	})
	date := model.NewDate(2024, 2, 1)

	dollar := evidence("10", "$", &date)
	n.Normalize(&dollar)
	if dollar.Excluded != "" || dollar.NormalizedUSD.String() != "10" {
		t.Errorf("$10 normalized = %v (excluded %q), want 10", dollar.NormalizedUSD, dollar.Excluded)
	}

	yen := evidence("72", "¥", &date)
	n.Normalize(&yen)
	if yen.Excluded != "" || yen.NormalizedUSD.String() != "10" {
		t.Errorf("¥72 normalized = %v (excluded %q), want 10", yen.NormalizedUSD, yen.Excluded)
	}
}

func TestNormalize_UnknownCurrencyCode(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{})
	ev := evidence("10", "XXX", nil)
	n.Normalize(&ev)
	if ev.Excluded != model.ExcludedUnknownCurrency {
		t.Errorf("excluded = %q, want %q", ev.Excluded, model.ExcludedUnknownCurrency)
	}
}

func TestNormalize_FallbackMostRecent(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{Fallback: "most_recent"})

	// No observed date: latest table entry applies and the result is
	// flagged approximate. Latest EUR rate is 0.91.
	ev := evidence("91", "EUR", nil)
	n.Normalize(&ev)
	if ev.Excluded != "" {
		t.Fatalf("unexpected exclusion: %s", ev.Excluded)
	}
	if ev.NormalizedUSD.String() != "100" {
		t.Errorf("normalized = %s, want 100", ev.NormalizedUSD)
	}
	if !ev.Approximate {
		t.Error("fallback conversion must be flagged approximate")
	}
}

func TestNormalize_FallbackNoneExcludes(t *testing.T) {
	n := mustNormalizer(t, model.RatesConfig{Fallback: "none"})

	ev := evidence("91", "EUR", nil)
	n.Normalize(&ev)
	if ev.Excluded != model.ExcludedRateUnavailable {
		t.Errorf("excluded = %q, want %q", ev.Excluded, model.ExcludedRateUnavailable)
	}
}

func TestNormalize_DateBeforeTable(t *testing.T) {
	// Observed before the first table entry: no dated rate exists, the
	// fallback policy decides.
	old := model.NewDate(2020, 1, 1)

	strict := mustNormalizer(t, model.RatesConfig{Fallback: "none"})
	ev := evidence("85", "EUR", &old)
	strict.Normalize(&ev)
	if ev.Excluded != model.ExcludedRateUnavailable {
		t.Errorf("excluded = %q, want %q", ev.Excluded, model.ExcludedRateUnavailable)
	}

	lenient := mustNormalizer(t, model.RatesConfig{Fallback: "most_recent"})
	ev2 := evidence("91", "EUR", &old)
	lenient.Normalize(&ev2)
	if ev2.Excluded != "" || !ev2.Approximate {
		t.Errorf("expected approximate fallback, got excluded=%q approximate=%v", ev2.Excluded, ev2.Approximate)
	}
}

func TestLoadRateTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	content := `rates:
  - date: "2025-01-01"
    per_usd:
      eur: "0.90"
      gbp: "0.80"
  - date: "2025-06-01"
    per_usd:
      eur: "0.95"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	n := mustNormalizer(t, model.RatesConfig{File: path, Fallback: "none"})

	date := model.NewDate(2025, 3, 1)
	ev := evidence("90", "EUR", &date)
	n.Normalize(&ev)
	if ev.Excluded != "" || ev.NormalizedUSD.String() != "100" {
		t.Errorf("normalized = %v (excluded %q), want 100", ev.NormalizedUSD, ev.Excluded)
	}

	// Codes are upcased on load
	ev2 := evidence("80", "gbp", &date)
	n.Normalize(&ev2)
	if ev2.Excluded != "" || ev2.NormalizedUSD.String() != "100" {
		t.Errorf("gbp normalized = %v (excluded %q), want 100", ev2.NormalizedUSD, ev2.Excluded)
	}
}

func TestLoadRateTable_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("rates: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRateTable(empty); err == nil {
		t.Error("expected error for empty rate table")
	}

	negative := filepath.Join(dir, "negative.yaml")
	content := "rates:\n  - date: \"2025-01-01\"\n    per_usd:\n      eur: \"-1\"\n"
	if err := os.WriteFile(negative, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRateTable(negative); err == nil {
		t.Error("expected error for non-positive rate")
	}

	if _, err := LoadRateTable(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewNormalizer_UnknownFallback(t *testing.T) {
	if _, err := NewNormalizer(model.RatesConfig{Fallback: "guess"}); err == nil {
		t.Error("expected error for unknown fallback policy")
	}
}
