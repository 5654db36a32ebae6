package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CellKey uniquely identifies one benchmark cell
type CellKey struct {
	DataType    DataType    `json:"data_type"`
	ListingType ListingType `json:"listing_type"`
	Region      string      `json:"region"`
}

func (k CellKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.DataType, k.ListingType, k.Region)
}

// PriceBenchRow is the aggregated statistic for one benchmark cell.
// Rows are produced in bulk by one aggregator run and never mutated;
// a fresh pipeline run replaces the benchmark artifact wholesale.
type PriceBenchRow struct {
	DataType    DataType    `json:"data_type"`
	ListingType ListingType `json:"listing_type"`
	Region      string      `json:"region"`

	SampleCount int             `json:"sample_count"`
	P10         decimal.Decimal `json:"p10"`
	P50         decimal.Decimal `json:"p50"`
	P90         decimal.Decimal `json:"p90"`

	LastSeen *Date    `json:"last_seen,omitempty"` // max observed_date among contributors
	Sources  []string `json:"sources,omitempty"`   // contributing document IDs
}

// Key returns the cell key for this row
func (r PriceBenchRow) Key() CellKey {
	return CellKey{DataType: r.DataType, ListingType: r.ListingType, Region: r.Region}
}

// Benchmark is a set of rows unique by cell key
type Benchmark struct {
	Rows []PriceBenchRow `json:"rows"`
}

// Index builds a lookup table keyed by cell. Duplicate keys are a
// producer bug and surface as an error rather than a silent overwrite.
func (b Benchmark) Index() (map[CellKey]PriceBenchRow, error) {
	idx := make(map[CellKey]PriceBenchRow, len(b.Rows))
	for _, row := range b.Rows {
		key := row.Key()
		if _, dup := idx[key]; dup {
			return nil, fmt.Errorf("duplicate benchmark cell: %s", key)
		}
		idx[key] = row
	}
	return idx, nil
}
