package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/leakbench/leakbench/internal/model"
)

// Build produces one PriceBenchRow per distinct benchmark cell present in
// the input. Only records that are normalized and fully classified
// contribute; everything else is the caller's accounting problem.
//
// Aggregation is a pure batch computation: one run over one evidence set
// replaces the benchmark artifact wholesale.
func Build(evidence []model.PriceEvidence) model.Benchmark {
	groups := make(map[model.CellKey][]model.PriceEvidence)
	for _, ev := range evidence {
		if !ev.Aggregatable() {
			continue
		}
		key := model.CellKey{DataType: ev.DataType, ListingType: ev.ListingType, Region: ev.Region}
		groups[key] = append(groups[key], ev)
	}

	rows := make([]model.PriceBenchRow, 0, len(groups))
	for key, group := range groups {
		rows = append(rows, buildRow(key, group))
	}

	// Deterministic artifact order
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.DataType != b.DataType {
			return a.DataType < b.DataType
		}
		if a.ListingType != b.ListingType {
			return a.ListingType < b.ListingType
		}
		return a.Region < b.Region
	})

	return model.Benchmark{Rows: rows}
}

// buildRow computes the statistics for one cell. A single-observation
// cell yields p10 = p50 = p90 = that value: a valid, low-confidence
// degenerate benchmark, not an error.
func buildRow(key model.CellKey, group []model.PriceEvidence) model.PriceBenchRow {
	values := make([]decimal.Decimal, len(group))
	for i, ev := range group {
		values[i] = *ev.NormalizedUSD
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	var lastSeen *model.Date
	seen := make(map[string]struct{})
	var sources []string
	for _, ev := range group {
		if ev.ObservedDate != nil && (lastSeen == nil || ev.ObservedDate.After(lastSeen.Time)) {
			d := *ev.ObservedDate
			lastSeen = &d
		}
		if _, ok := seen[ev.Source.DocID]; !ok {
			seen[ev.Source.DocID] = struct{}{}
			sources = append(sources, ev.Source.DocID)
		}
	}
	sort.Strings(sources)

	return model.PriceBenchRow{
		DataType:    key.DataType,
		ListingType: key.ListingType,
		Region:      key.Region,
		SampleCount: len(values),
		P10:         Percentile(values, 10),
		P50:         Percentile(values, 50),
		P90:         Percentile(values, 90),
		LastSeen:    lastSeen,
		Sources:     sources,
	}
}

// Percentile computes the p-th percentile of ascending-sorted values by
// linear interpolation between order statistics:
//
//	k = (n-1) * p / 100, f = floor(k), c = k - f
//	result = v[f]*(1-c) + v[f+1]*c   (v[f] when f is the last index)
//
// This rule is a fixed contract; changing it silently re-prices every
// benchmark consumer.
func Percentile(sorted []decimal.Decimal, p int64) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return sorted[0]
	}

	k := decimal.NewFromInt(int64(n - 1)).Mul(decimal.NewFromInt(p)).Div(decimal.NewFromInt(100))
	f := k.IntPart()
	c := k.Sub(decimal.NewFromInt(f))

	if int(f)+1 >= n {
		return sorted[f]
	}
	one := decimal.NewFromInt(1)
	return sorted[f].Mul(one.Sub(c)).Add(sorted[f+1].Mul(c))
}
