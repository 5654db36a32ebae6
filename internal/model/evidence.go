package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DataType classifies what kind of personal data a listing sells
type DataType string

const (
	DataTypeContact             DataType = "contact"              // Names, phones, emails, addresses
	DataTypePIICore             DataType = "pii_core"             // Core identity records
	DataTypeFullz               DataType = "fullz"                // Complete identity kits
	DataTypeCreditCard          DataType = "credit_card"          // Card numbers, CVV, track data
	DataTypeBankLogin           DataType = "bank_login"           // Online banking credentials
	DataTypeGovIDScan           DataType = "gov_id_scan"          // Passport/ID document scans
	DataTypeMedicalRecord       DataType = "medical_record"       // Health records
	DataTypeConsumerAccount     DataType = "consumer_account"     // Retail/streaming accounts
	DataTypeCorporateAccess     DataType = "corporate_access"     // Corporate network access
	DataTypeTelecomSubscription DataType = "telecom_subscription" // Carrier plan data
	DataTypeTelecomProfile      DataType = "telecom_profile"      // Subscriber profiles
	DataTypeOther               DataType = "other"
)

// DataTypes lists every known data type in declaration order
var DataTypes = []DataType{
	DataTypeContact, DataTypePIICore, DataTypeFullz, DataTypeCreditCard,
	DataTypeBankLogin, DataTypeGovIDScan, DataTypeMedicalRecord,
	DataTypeConsumerAccount, DataTypeCorporateAccess,
	DataTypeTelecomSubscription, DataTypeTelecomProfile, DataTypeOther,
}

// ParseDataType converts a string into a DataType
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes {
		if string(dt) == s {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type: %q", s)
}

// ListingType classifies how the data is packaged for sale
type ListingType string

const (
	ListingRetailLookup  ListingType = "retail_lookup"  // Single-record lookups
	ListingBulkDump      ListingType = "bulk_dump"      // Bulk database dumps
	ListingAccountAccess ListingType = "account_access" // Working credentials
	ListingDocumentScan  ListingType = "document_scan"  // Scanned documents
)

// ListingTypes lists every known listing type in declaration order
var ListingTypes = []ListingType{
	ListingRetailLookup, ListingBulkDump, ListingAccountAccess, ListingDocumentScan,
}

// ParseListingType converts a string into a ListingType
func ParseListingType(s string) (ListingType, error) {
	for _, lt := range ListingTypes {
		if string(lt) == s {
			return lt, nil
		}
	}
	return "", fmt.Errorf("unknown listing type: %q", s)
}

// RegionAny marks evidence with no region signal
const RegionAny = "ANY"

// Date is a calendar date without a time component.
// It marshals as "YYYY-MM-DD" so evidence and benchmark artifacts
// round-trip byte-for-byte.
type Date struct {
	time.Time
}

// NewDate constructs a Date at UTC midnight
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date: %w", err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date must be a quoted string, got %s", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SourceLocator identifies where in the corpus an observation was found
type SourceLocator struct {
	DocID  string `json:"doc_id"`
	Offset int    `json:"offset"`
}

func (s SourceLocator) String() string {
	return fmt.Sprintf("%s@%d", s.DocID, s.Offset)
}

// ExclusionReason records why a piece of evidence was dropped from aggregation.
// Excluded evidence stays in the evidence artifact for audit.
type ExclusionReason string

const (
	ExcludedUnknownCurrency ExclusionReason = "unknown_currency"
	ExcludedRateUnavailable ExclusionReason = "rate_unavailable"
	ExcludedUnclassified    ExclusionReason = "no_taxonomy_match"
)

// PriceEvidence is one observed price mention extracted from a document.
// It is created by the extractor, filled in by the normalizer and the
// taxonomy mapper, and immutable afterwards.
type PriceEvidence struct {
	RawAmount   decimal.Decimal `json:"raw_amount"`
	RawCurrency string          `json:"raw_currency"` // ISO code or symbol as seen in text

	ObservedDate *Date `json:"observed_date,omitempty"`

	DataType    DataType    `json:"data_type,omitempty"`    // empty until classified
	ListingType ListingType `json:"listing_type,omitempty"` // empty until classified
	Region      string      `json:"region,omitempty"`       // "ANY" when no region signal

	Source  SourceLocator `json:"source"`
	Snippet string        `json:"snippet"` // bounded-length context window

	NormalizedUSD *decimal.Decimal `json:"normalized_usd,omitempty"`
	Approximate   bool             `json:"approximate,omitempty"` // fallback FX rate was used

	Extractor string          `json:"extractor,omitempty"` // "pattern" or oracle provider name
	Excluded  ExclusionReason `json:"excluded,omitempty"`
}

// Classified reports whether both taxonomy fields are set
func (e *PriceEvidence) Classified() bool {
	return e.DataType != "" && e.ListingType != ""
}

// Aggregatable reports whether the record may contribute to a benchmark
func (e *PriceEvidence) Aggregatable() bool {
	return e.Excluded == "" && e.NormalizedUSD != nil && e.Classified()
}
