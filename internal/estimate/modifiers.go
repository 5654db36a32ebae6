package estimate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/leakbench/leakbench/internal/model"
)

// Modifier factors are a fixed contract, not tunable defaults. The
// tables are exhaustive over their enums; an unhandled value is a
// programming error upstream (specs are validated at parse time) and
// panics rather than silently pricing with a wrong factor.

var (
	factor02 = decimal.RequireFromString("0.2")
	factor03 = decimal.RequireFromString("0.3")
	factor04 = decimal.RequireFromString("0.4")
	factor05 = decimal.RequireFromString("0.5")
	factor08 = decimal.RequireFromString("0.8")
	factor09 = decimal.RequireFromString("0.9")
	factor10 = decimal.RequireFromString("1.0")
	factor11 = decimal.RequireFromString("1.1")
	factor12 = decimal.RequireFromString("1.2")
	factor13 = decimal.RequireFromString("1.3")
	factor15 = decimal.RequireFromString("1.5")
)

// FreshnessFactor discounts by data age: under a month full price, up to
// six months half, older a fifth
func FreshnessFactor(days int) decimal.Decimal {
	switch {
	case days < 30:
		return factor10
	case days <= 180:
		return factor05
	default:
		return factor02
	}
}

// CompletenessFactor scales by how much of the record set is delivered
func CompletenessFactor(level model.Completeness) decimal.Decimal {
	switch level {
	case model.CompletenessFragment:
		return factor04
	case model.CompletenessStandard:
		return factor10
	case model.CompletenessFull:
		return factor12
	default:
		panic(fmt.Sprintf("unhandled completeness level: %q", level))
	}
}

// ExclusivityFactor scales by how widely the data has circulated
func ExclusivityFactor(kind model.Exclusivity) decimal.Decimal {
	switch kind {
	case model.ExclusivityWidelyLeaked:
		return factor05
	case model.ExclusivityLimited:
		return factor10
	case model.ExclusivitySingleSeller:
		return factor15
	default:
		panic(fmt.Sprintf("unhandled exclusivity: %q", kind))
	}
}

// PackagingFactor scales by listing type
func PackagingFactor(listing model.ListingType) decimal.Decimal {
	switch listing {
	case model.ListingRetailLookup:
		return factor15
	case model.ListingBulkDump:
		return factor03
	case model.ListingAccountAccess:
		return factor10
	case model.ListingDocumentScan:
		return factor12
	default:
		panic(fmt.Sprintf("unhandled listing type: %q", listing))
	}
}

// ReputationFactor scales by seller standing
func ReputationFactor(level model.Reputation) decimal.Decimal {
	switch level {
	case model.ReputationUnknown:
		return factor09
	case model.ReputationVerified:
		return factor10
	case model.ReputationEscrow:
		return factor12
	default:
		panic(fmt.Sprintf("unhandled reputation: %q", level))
	}
}

// DemandFactor scales by current market demand
func DemandFactor(level model.Demand) decimal.Decimal {
	switch level {
	case model.DemandLow:
		return factor08
	case model.DemandNormal:
		return factor10
	case model.DemandHigh:
		return factor11
	case model.DemandSpike:
		return factor13
	default:
		panic(fmt.Sprintf("unhandled demand: %q", level))
	}
}
