package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Completeness describes how much of the record set a listing delivers
type Completeness string

const (
	CompletenessFragment Completeness = "fragment"
	CompletenessStandard Completeness = "standard"
	CompletenessFull     Completeness = "full"
)

// Exclusivity describes how widely the data has already circulated
type Exclusivity string

const (
	ExclusivityWidelyLeaked Exclusivity = "widely_leaked"
	ExclusivityLimited      Exclusivity = "limited"
	ExclusivitySingleSeller Exclusivity = "single_seller"
)

// Reputation describes the seller's standing on the market
type Reputation string

const (
	ReputationUnknown  Reputation = "unknown"
	ReputationVerified Reputation = "verified"
	ReputationEscrow   Reputation = "escrow_guarantee"
)

// Demand describes current market demand for the data type
type Demand string

const (
	DemandLow    Demand = "low"
	DemandNormal Demand = "normal"
	DemandHigh   Demand = "high"
	DemandSpike  Demand = "spike"
)

// Features is the parsed feature bag of a pricing request
type Features struct {
	FreshnessDays int             `json:"freshness_days"`
	Completeness  Completeness    `json:"completeness"`
	Exclusivity   Exclusivity     `json:"exclusivity"`
	Reputation    Reputation      `json:"seller_reputation"`
	Demand        Demand          `json:"demand"`
	VIPAdd        decimal.Decimal `json:"vip_add"`
}

// DefaultFeatures returns the documented feature defaults
func DefaultFeatures() Features {
	return Features{
		FreshnessDays: 0,
		Completeness:  CompletenessStandard,
		Exclusivity:   ExclusivityLimited,
		Reputation:    ReputationUnknown,
		Demand:        DemandNormal,
		VIPAdd:        decimal.Zero,
	}
}

// ParseFeatures parses a raw feature bag. Unknown keys are ignored,
// missing keys take defaults, and known keys with invalid values are
// rejected. A negative vip_add is rejected unless allowNegativeVIP is set.
func ParseFeatures(raw map[string]any, allowNegativeVIP bool) (Features, error) {
	f := DefaultFeatures()

	for key, value := range raw {
		switch key {
		case "freshness_days":
			days, err := toInt(value)
			if err != nil {
				return f, fmt.Errorf("freshness_days: %w", err)
			}
			if days < 0 {
				return f, fmt.Errorf("freshness_days must be >= 0, got %d", days)
			}
			f.FreshnessDays = days

		case "completeness":
			s, err := toString(value)
			if err != nil {
				return f, fmt.Errorf("completeness: %w", err)
			}
			switch Completeness(s) {
			case CompletenessFragment, CompletenessStandard, CompletenessFull:
				f.Completeness = Completeness(s)
			default:
				return f, fmt.Errorf("unknown completeness: %q", s)
			}

		case "exclusivity":
			s, err := toString(value)
			if err != nil {
				return f, fmt.Errorf("exclusivity: %w", err)
			}
			switch Exclusivity(s) {
			case ExclusivityWidelyLeaked, ExclusivityLimited, ExclusivitySingleSeller:
				f.Exclusivity = Exclusivity(s)
			default:
				return f, fmt.Errorf("unknown exclusivity: %q", s)
			}

		case "seller_reputation":
			s, err := toString(value)
			if err != nil {
				return f, fmt.Errorf("seller_reputation: %w", err)
			}
			switch Reputation(s) {
			case ReputationUnknown, ReputationVerified, ReputationEscrow:
				f.Reputation = Reputation(s)
			default:
				return f, fmt.Errorf("unknown seller_reputation: %q", s)
			}

		case "demand":
			s, err := toString(value)
			if err != nil {
				return f, fmt.Errorf("demand: %w", err)
			}
			switch Demand(s) {
			case DemandLow, DemandNormal, DemandHigh, DemandSpike:
				f.Demand = Demand(s)
			default:
				return f, fmt.Errorf("unknown demand: %q", s)
			}

		case "vip_add":
			d, err := toDecimal(value)
			if err != nil {
				return f, fmt.Errorf("vip_add: %w", err)
			}
			if d.IsNegative() && !allowNegativeVIP {
				return f, fmt.Errorf("negative vip_add %s requires allow_negative_vip", d)
			}
			f.VIPAdd = d

		default:
			// Unrecognized feature keys are ignored, not rejected
		}
	}

	return f, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Zero, fmt.Errorf("expected number, got %T", v)
	}
}

// ItemSpec is a pricing request against a persisted benchmark
type ItemSpec struct {
	DataType    DataType    `json:"data_type"`
	ListingType ListingType `json:"listing_type"`
	Region      string      `json:"region"`
	Features    Features    `json:"features"`
}

// EstimationResult is the output of the rule-based estimator.
// It is derived functionally from one benchmark lookup set and one
// spec, and never mutated after construction.
type EstimationResult struct {
	BaseSum  decimal.Decimal `json:"base_sum"`
	EstPrice decimal.Decimal `json:"est_price"`

	Confidence float64 `json:"confidence"`

	// Exact factor value used per modifier category, for audit
	ModifiersApplied map[string]decimal.Decimal `json:"modifiers_applied"`

	// Benchmark cells that contributed to base_sum, in lookup order
	ComponentsUsed []CellKey `json:"components_used"`

	// True when the region="ANY" fallback row was used
	RegionFallback bool `json:"region_fallback,omitempty"`

	Spec ItemSpec `json:"spec"`
}
