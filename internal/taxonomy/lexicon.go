package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leakbench/leakbench/internal/model"
)

// DataTypeEntry maps one data type to its trigger keywords
type DataTypeEntry struct {
	Type     model.DataType `yaml:"type"`
	Keywords []string       `yaml:"keywords"`
}

// ListingTypeEntry maps one listing type to its trigger keywords
type ListingTypeEntry struct {
	Type     model.ListingType `yaml:"type"`
	Keywords []string          `yaml:"keywords"`
}

// RegionEntry maps one region code to its trigger keywords
type RegionEntry struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon is the versioned keyword mapping used for classification.
// Entry order is significant: when two keywords of equal length match,
// the earlier declaration wins. A lexicon is loaded once per pipeline
// run and never mutated, so classification is reproducible within a run.
type Lexicon struct {
	Version      string             `yaml:"version"`
	DataTypes    []DataTypeEntry    `yaml:"data_types"`
	ListingTypes []ListingTypeEntry `yaml:"listing_types"`
	Regions      []RegionEntry      `yaml:"regions"`
}

// DefaultLexicon returns the built-in lexicon
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Version: "builtin-1",
		DataTypes: []DataTypeEntry{
			{Type: model.DataTypeFullz, Keywords: []string{
				"fullz", "full identity kit", "complete identity",
			}},
			{Type: model.DataTypeCreditCard, Keywords: []string{
				"credit card", "card number", "cvv", "track 2", "track 1",
				"dumps with pin", "card dump", "carding",
			}},
			{Type: model.DataTypeBankLogin, Keywords: []string{
				"bank login", "bank account", "online banking", "routing number",
				"wire transfer", "bank drop",
			}},
			{Type: model.DataTypeGovIDScan, Keywords: []string{
				"passport scan", "passport", "driver's license", "drivers license",
				"national id", "id card", "ssn",
			}},
			{Type: model.DataTypeMedicalRecord, Keywords: []string{
				"medical record", "health record", "patient record", "ehr",
				"insurance record",
			}},
			{Type: model.DataTypeCorporateAccess, Keywords: []string{
				"corporate access", "rdp access", "vpn access", "domain admin",
				"network access",
			}},
			{Type: model.DataTypeTelecomSubscription, Keywords: []string{
				"telecom subscription", "carrier plan", "sim registration",
				"phone plan",
			}},
			{Type: model.DataTypeTelecomProfile, Keywords: []string{
				"telecom profile", "subscriber profile", "call record", "cdr",
			}},
			{Type: model.DataTypeConsumerAccount, Keywords: []string{
				"streaming account", "netflix", "spotify", "loyalty account",
				"gift card balance",
			}},
			{Type: model.DataTypePIICore, Keywords: []string{
				"pii", "personal information", "identity record", "date of birth",
			}},
			{Type: model.DataTypeContact, Keywords: []string{
				"email list", "phone list", "contact list", "mailing list",
				"email address", "phone number",
			}},
		},
		ListingTypes: []ListingTypeEntry{
			{Type: model.ListingBulkDump, Keywords: []string{
				"bulk dump", "database dump", "per dataset", "per 1000", "per 1k",
				"bulk", "dump", "database",
			}},
			{Type: model.ListingAccountAccess, Keywords: []string{
				"account access", "login credentials", "working login", "account",
				"credentials",
			}},
			{Type: model.ListingDocumentScan, Keywords: []string{
				"document scan", "scanned copy", "scan", "photo of",
			}},
			{Type: model.ListingRetailLookup, Keywords: []string{
				"retail lookup", "per record", "per lookup", "single record",
				"lookup", "each",
			}},
		},
		Regions: []RegionEntry{
			{Code: "US", Keywords: []string{"united states", "american", " usa ", " us-based"}},
			{Code: "EU", Keywords: []string{"european union", "europe", " eu "}},
			{Code: "UK", Keywords: []string{"united kingdom", "british", " uk "}},
			{Code: "CN", Keywords: []string{"china", "chinese", " cn "}},
			{Code: "RU", Keywords: []string{"russia", "russian", " ru "}},
		},
	}
}

// LoadLexicon reads a lexicon from a YAML file and validates its types
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	for _, entry := range lex.DataTypes {
		if _, err := model.ParseDataType(string(entry.Type)); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", path, err)
		}
	}
	for _, entry := range lex.ListingTypes {
		if _, err := model.ParseListingType(string(entry.Type)); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", path, err)
		}
	}

	if len(lex.DataTypes) == 0 || len(lex.ListingTypes) == 0 {
		return nil, fmt.Errorf("lexicon %s: data_types and listing_types must not be empty", path)
	}

	return &lex, nil
}

// Mapper classifies evidence against an immutable lexicon
type Mapper struct {
	lex *Lexicon
}

// NewMapper creates a mapper over the given lexicon
func NewMapper(lex *Lexicon) *Mapper {
	return &Mapper{lex: lex}
}

// Classify fills in data_type, listing_type and region from the context
// snippet, or marks the evidence unclassified. Hints already present on
// the record (oracle-supplied) are kept. The record is either fully
// classified afterwards or excluded; region is never left empty.
func (m *Mapper) Classify(ev *model.PriceEvidence) {
	snippet := " " + strings.ToLower(ev.Snippet) + " "

	if ev.DataType == "" {
		if dt, ok := m.matchDataType(snippet); ok {
			ev.DataType = dt
		}
	}
	if ev.ListingType == "" {
		if lt, ok := m.matchListingType(snippet); ok {
			ev.ListingType = lt
		}
	}
	if ev.Region == "" {
		ev.Region = m.matchRegion(snippet)
	}

	if !ev.Classified() {
		ev.Excluded = model.ExcludedUnclassified
	}
}

// matchDataType returns the data type whose longest keyword occurs in
// the snippet. Ties on keyword length go to the earlier lexicon entry.
func (m *Mapper) matchDataType(snippet string) (model.DataType, bool) {
	best := -1
	var bestType model.DataType
	for _, entry := range m.lex.DataTypes {
		for _, kw := range entry.Keywords {
			if len(kw) > best && strings.Contains(snippet, strings.ToLower(kw)) {
				best = len(kw)
				bestType = entry.Type
			}
		}
	}
	return bestType, best >= 0
}

// matchListingType mirrors matchDataType for listing types
func (m *Mapper) matchListingType(snippet string) (model.ListingType, bool) {
	best := -1
	var bestType model.ListingType
	for _, entry := range m.lex.ListingTypes {
		for _, kw := range entry.Keywords {
			if len(kw) > best && strings.Contains(snippet, strings.ToLower(kw)) {
				best = len(kw)
				bestType = entry.Type
			}
		}
	}
	return bestType, best >= 0
}

// matchRegion returns the first region whose keyword occurs in the
// snippet, or RegionAny when no region signal is present
func (m *Mapper) matchRegion(snippet string) string {
	for _, entry := range m.lex.Regions {
		for _, kw := range entry.Keywords {
			if strings.Contains(snippet, strings.ToLower(kw)) {
				return entry.Code
			}
		}
	}
	return model.RegionAny
}
