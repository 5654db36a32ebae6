package estimate

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/leakbench/leakbench/internal/model"
)

// confidence ceilings by lookup quality
const (
	ceilingExactCell      = 0.95
	ceilingRegionFallback = 0.60
)

// NoBenchmarkDataError reports that neither the requested cell nor its
// region-ANY fallback exists in the benchmark. Callers must handle this
// explicitly; there is no zero-price default.
type NoBenchmarkDataError struct {
	Cell model.CellKey
}

func (e *NoBenchmarkDataError) Error() string {
	return fmt.Sprintf("no benchmark data for %s (or %s/%s/%s)",
		e.Cell, e.Cell.DataType, e.Cell.ListingType, model.RegionAny)
}

// IsNoBenchmarkData reports whether err is a missing-cell estimation error
func IsNoBenchmarkData(err error) bool {
	var target *NoBenchmarkDataError
	return errors.As(err, &target)
}

// Estimator prices item specs against an immutable benchmark snapshot.
// It is deterministic: the same benchmark and spec always produce the
// same result.
type Estimator struct {
	index map[model.CellKey]model.PriceBenchRow
}

// NewEstimator indexes the benchmark for lookup
func NewEstimator(bench model.Benchmark) (*Estimator, error) {
	idx, err := bench.Index()
	if err != nil {
		return nil, err
	}
	return &Estimator{index: idx}, nil
}

// Estimate prices one spec. The base price is the p50 of the matching
// cell, preferring the exact region and falling back to the region-ANY
// row at a lower confidence ceiling. Six multiplicative modifiers apply
// on top, then the flat vip_add, and the result is clamped at zero.
func (e *Estimator) Estimate(spec model.ItemSpec) (*model.EstimationResult, error) {
	region := spec.Region
	if region == "" {
		region = model.RegionAny
	}

	key := model.CellKey{DataType: spec.DataType, ListingType: spec.ListingType, Region: region}
	row, fallback, ok := e.lookup(key)
	if !ok {
		return nil, &NoBenchmarkDataError{Cell: key}
	}

	f := spec.Features
	modifiers := map[string]decimal.Decimal{
		"freshness":         FreshnessFactor(f.FreshnessDays),
		"completeness":      CompletenessFactor(f.Completeness),
		"exclusivity":       ExclusivityFactor(f.Exclusivity),
		"packaging":         PackagingFactor(spec.ListingType),
		"seller_reputation": ReputationFactor(f.Reputation),
		"demand":            DemandFactor(f.Demand),
	}

	base := row.P50
	price := base.
		Mul(modifiers["freshness"]).
		Mul(modifiers["completeness"]).
		Mul(modifiers["exclusivity"]).
		Mul(modifiers["packaging"]).
		Mul(modifiers["seller_reputation"]).
		Mul(modifiers["demand"]).
		Add(f.VIPAdd)
	if price.IsNegative() {
		price = decimal.Zero
	}

	return &model.EstimationResult{
		BaseSum:          base,
		EstPrice:         price,
		Confidence:       confidence(row.SampleCount, fallback),
		ModifiersApplied: modifiers,
		ComponentsUsed:   []model.CellKey{row.Key()},
		RegionFallback:   fallback,
		Spec:             spec,
	}, nil
}

// lookup resolves the exact cell, then the region-ANY fallback
func (e *Estimator) lookup(key model.CellKey) (model.PriceBenchRow, bool, bool) {
	if row, ok := e.index[key]; ok {
		return row, false, true
	}
	if key.Region == model.RegionAny {
		return model.PriceBenchRow{}, false, false
	}
	key.Region = model.RegionAny
	if row, ok := e.index[key]; ok {
		return row, true, true
	}
	return model.PriceBenchRow{}, false, false
}

// confidence scales a ceiling by sample count: ceiling * n / (n + 5).
// It grows monotonically with n and never reaches the ceiling, so a
// thin cell is always visibly less trustworthy than a deep one.
func confidence(sampleCount int, fallback bool) float64 {
	ceiling := ceilingExactCell
	if fallback {
		ceiling = ceilingRegionFallback
	}
	n := float64(sampleCount)
	return ceiling * n / (n + 5)
}
