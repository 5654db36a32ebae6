package normalize

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/leakbench/leakbench/internal/model"
)

// unambiguousSymbols maps currency symbols that denote exactly one
// currency. "$" and "¥" are used by several currencies and are only
// resolved through explicit configuration.
var unambiguousSymbols = map[string]string{
	"€": "EUR",
	"£": "GBP",
}

// rateDay is one dated set of exchange rates, expressed as units of
// currency per USD
type rateDay struct {
	Date  model.Date
	Rates map[string]decimal.Decimal
}

// RateTable holds dated exchange rates sorted ascending by date
type RateTable struct {
	days []rateDay
}

// builtinRates covers the corpus's observation window. A rates file
// replaces it entirely.
func builtinRates() *RateTable {
	day := func(y int, m int, rates map[string]string) rateDay {
		parsed := make(map[string]decimal.Decimal, len(rates))
		for code, v := range rates {
			parsed[code] = decimal.RequireFromString(v)
		}
		return rateDay{Date: model.NewDate(y, time.Month(m), 1), Rates: parsed}
	}

	return &RateTable{days: []rateDay{
		day(2024, 1, map[string]string{"EUR": "0.85", "CNY": "7.2", "GBP": "0.79"}),
		day(2024, 6, map[string]string{"EUR": "0.92", "CNY": "7.1", "GBP": "0.78"}),
		day(2024, 12, map[string]string{"EUR": "0.91", "CNY": "7.0", "GBP": "0.79"}),
	}}
}

// rateFile is the YAML shape of an external rate table
type rateFile struct {
	Rates []struct {
		Date   string            `yaml:"date"`
		PerUSD map[string]string `yaml:"per_usd"`
	} `yaml:"rates"`
}

// LoadRateTable reads a YAML rate table from disk
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}

	var file rateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rates file: %w", err)
	}
	if len(file.Rates) == 0 {
		return nil, fmt.Errorf("rates file %s contains no entries", path)
	}

	table := &RateTable{days: make([]rateDay, 0, len(file.Rates))}
	for _, entry := range file.Rates {
		date, err := model.ParseDate(entry.Date)
		if err != nil {
			return nil, fmt.Errorf("rates file %s: %w", path, err)
		}
		rates := make(map[string]decimal.Decimal, len(entry.PerUSD))
		for code, raw := range entry.PerUSD {
			rate, err := decimal.NewFromString(raw)
			if err != nil || !rate.IsPositive() {
				return nil, fmt.Errorf("rates file %s: invalid rate for %s on %s", path, code, entry.Date)
			}
			rates[strings.ToUpper(code)] = rate
		}
		table.days = append(table.days, rateDay{Date: date, Rates: rates})
	}

	sort.Slice(table.days, func(i, j int) bool {
		return table.days[i].Date.Before(table.days[j].Date.Time)
	})

	return table, nil
}

// knownCurrency reports whether any day in the table quotes the code
func (t *RateTable) knownCurrency(code string) bool {
	for _, day := range t.days {
		if _, ok := day.Rates[code]; ok {
			return true
		}
	}
	return false
}

// rateOn returns the rate from the latest day at or before the date that
// quotes the currency
func (t *RateTable) rateOn(code string, date model.Date) (decimal.Decimal, bool) {
	for i := len(t.days) - 1; i >= 0; i-- {
		if t.days[i].Date.After(date.Time) {
			continue
		}
		if rate, ok := t.days[i].Rates[code]; ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// mostRecent returns the rate from the latest day that quotes the currency
func (t *RateTable) mostRecent(code string) (decimal.Decimal, bool) {
	for i := len(t.days) - 1; i >= 0; i-- {
		if rate, ok := t.days[i].Rates[code]; ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// Normalizer converts raw observations into USD amounts. It never
// guesses a currency: ambiguous symbols without explicit configuration
// mark the evidence unnormalizable so currency noise cannot distort the
// downstream percentile statistics.
type Normalizer struct {
	table              *RateTable
	symbolCurrencies   map[string]string
	fallbackMostRecent bool
}

// NewNormalizer builds a normalizer from configuration, loading the
// external rate table when one is configured.
func NewNormalizer(cfg model.RatesConfig) (*Normalizer, error) {
	table := builtinRates()
	if cfg.File != "" {
		loaded, err := LoadRateTable(cfg.File)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	switch cfg.Fallback {
	case "", "most_recent", "none":
	default:
		return nil, fmt.Errorf("unknown rates fallback policy: %q", cfg.Fallback)
	}

	return &Normalizer{
		table:              table,
		symbolCurrencies:   cfg.SymbolCurrencies,
		fallbackMostRecent: cfg.Fallback != "none",
	}, nil
}

// Normalize fills in NormalizedUSD, or marks the evidence excluded with
// the reason. It mutates the record in place and is the only writer of
// the normalization fields.
func (n *Normalizer) Normalize(ev *model.PriceEvidence) {
	code, ok := n.resolveCurrency(ev.RawCurrency)
	if !ok {
		ev.Excluded = model.ExcludedUnknownCurrency
		return
	}

	if code == "USD" {
		usd := ev.RawAmount
		ev.NormalizedUSD = &usd
		return
	}

	if !n.table.knownCurrency(code) {
		ev.Excluded = model.ExcludedUnknownCurrency
		return
	}

	if ev.ObservedDate != nil {
		if rate, ok := n.table.rateOn(code, *ev.ObservedDate); ok {
			usd := ev.RawAmount.Div(rate)
			ev.NormalizedUSD = &usd
			return
		}
	}

	if !n.fallbackMostRecent {
		ev.Excluded = model.ExcludedRateUnavailable
		return
	}

	rate, ok := n.table.mostRecent(code)
	if !ok {
		ev.Excluded = model.ExcludedRateUnavailable
		return
	}
	usd := ev.RawAmount.Div(rate)
	ev.NormalizedUSD = &usd
	ev.Approximate = true
}

// resolveCurrency maps the raw token to an ISO code, failing closed on
// ambiguous symbols without explicit configuration
func (n *Normalizer) resolveCurrency(raw string) (string, bool) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", false
	}

	upper := strings.ToUpper(token)
	if upper == "USD" || n.table.knownCurrency(upper) {
		return upper, true
	}

	if code, ok := unambiguousSymbols[token]; ok {
		return code, true
	}
	if code, ok := n.symbolCurrencies[token]; ok {
		return strings.ToUpper(code), true
	}

	return "", false
}
