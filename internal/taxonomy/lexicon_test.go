package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leakbench/leakbench/internal/model"
)

func classify(t *testing.T, snippet string) model.PriceEvidence {
	t.Helper()
	ev := model.PriceEvidence{Snippet: snippet}
	NewMapper(DefaultLexicon()).Classify(&ev)
	return ev
}

func TestClassify_DataTypes(t *testing.T) {
	tests := []struct {
		snippet string
		want    model.DataType
	}{
		{"fresh fullz with dob and ssn included", model.DataTypeFullz},
		{"credit card dumps with pin, bulk discount", model.DataTypeCreditCard},
		{"verified bank login with routing number", model.DataTypeBankLogin},
		{"high quality passport scan, single seller", model.DataTypeGovIDScan},
		{"complete patient record sets from clinic", model.DataTypeMedicalRecord},
		{"rdp access to corporate network", model.DataTypeCorporateAccess},
		{"netflix accounts, warranty included", model.DataTypeConsumerAccount},
		{"subscriber profile with call record history", model.DataTypeTelecomProfile},
		{"fresh email list for marketing", model.DataTypeContact},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			ev := classify(t, tt.snippet+" for sale, bulk dump")
			if ev.DataType != tt.want {
				t.Errorf("data type = %q, want %q", ev.DataType, tt.want)
			}
		})
	}
}

func TestClassify_ListingTypes(t *testing.T) {
	tests := []struct {
		snippet string
		want    model.ListingType
	}{
		{"fullz database dump, 100k rows", model.ListingBulkDump},
		{"bank login credentials, tested working", model.ListingAccountAccess},
		{"passport scanned copy, high resolution", model.ListingDocumentScan},
		{"ssn lookup service, per record pricing", model.ListingRetailLookup},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			ev := classify(t, tt.snippet)
			if ev.ListingType != tt.want {
				t.Errorf("listing type = %q, want %q (snippet %q)", ev.ListingType, tt.want, tt.snippet)
			}
		})
	}
}

func TestClassify_LongestKeywordWins(t *testing.T) {
	// "credit card" (11 chars, earlier entry) vs "bank account" (12 chars):
	// the longer keyword wins regardless of declaration order.
	ev := classify(t, "credit card and bank account combo, bulk dump")
	if ev.DataType != model.DataTypeBankLogin {
		t.Errorf("data type = %q, want bank_login (longest keyword)", ev.DataType)
	}
}

func TestClassify_TieGoesToEarlierEntry(t *testing.T) {
	// "dump" appears under bulk_dump before any same-length listing
	// keyword; a strictly longer later keyword is required to displace it.
	ev := classify(t, "fullz dump scan")
	if ev.ListingType != model.ListingBulkDump {
		t.Errorf("listing type = %q, want bulk_dump on length tie", ev.ListingType)
	}
}

func TestClassify_Regions(t *testing.T) {
	tests := []struct {
		snippet string
		want    string
	}{
		{"fullz from the united states, bulk dump", "US"},
		{"european union id card scans", "EU"},
		{"british bank login credentials", "UK"},
		{"chinese subscriber profile database", "CN"},
		{"russian passport scan collection", "RU"},
		{"fullz bulk dump, origin unstated", model.RegionAny},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ev := classify(t, tt.snippet)
			if ev.Region != tt.want {
				t.Errorf("region = %q, want %q", ev.Region, tt.want)
			}
		})
	}
}

func TestClassify_UnmatchedIsExcluded(t *testing.T) {
	ev := classify(t, "totally unrelated text with nothing to classify")
	if ev.Excluded != model.ExcludedUnclassified {
		t.Errorf("excluded = %q, want %q", ev.Excluded, model.ExcludedUnclassified)
	}
	if ev.Region != model.RegionAny {
		t.Errorf("region = %q, want %q even when unclassified", ev.Region, model.RegionAny)
	}
}

func TestClassify_PartialMatchIsExcluded(t *testing.T) {
	// Data type matches, listing type does not
	ev := classify(t, "fullz available, inquire within")
	if ev.DataType != model.DataTypeFullz {
		t.Errorf("data type = %q, want fullz", ev.DataType)
	}
	if ev.Excluded != model.ExcludedUnclassified {
		t.Errorf("excluded = %q, want %q for partial classification", ev.Excluded, model.ExcludedUnclassified)
	}
}

func TestClassify_KeepsOracleHints(t *testing.T) {
	ev := model.PriceEvidence{
		Snippet:     "credit card dumps, bulk",
		DataType:    model.DataTypeMedicalRecord, // oracle said otherwise
		ListingType: model.ListingRetailLookup,
		Region:      "EU",
	}
	NewMapper(DefaultLexicon()).Classify(&ev)

	if ev.DataType != model.DataTypeMedicalRecord {
		t.Errorf("oracle data type hint overwritten: %q", ev.DataType)
	}
	if ev.ListingType != model.ListingRetailLookup {
		t.Errorf("oracle listing type hint overwritten: %q", ev.ListingType)
	}
	if ev.Region != "EU" {
		t.Errorf("oracle region hint overwritten: %q", ev.Region)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	ev := classify(t, "FULLZ Database DUMP from the United States")
	if ev.DataType != model.DataTypeFullz {
		t.Errorf("data type = %q, want fullz", ev.DataType)
	}
	if ev.ListingType != model.ListingBulkDump {
		t.Errorf("listing type = %q, want bulk_dump", ev.ListingType)
	}
	if ev.Region != "US" {
		t.Errorf("region = %q, want US", ev.Region)
	}
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `version: test-1
data_types:
  - type: fullz
    keywords: ["fullz"]
listing_types:
  - type: bulk_dump
    keywords: ["dump"]
regions:
  - code: US
    keywords: ["usa"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon failed: %v", err)
	}
	if lex.Version != "test-1" || len(lex.DataTypes) != 1 || len(lex.ListingTypes) != 1 {
		t.Errorf("unexpected lexicon: %+v", lex)
	}
}

func TestLoadLexicon_Invalid(t *testing.T) {
	dir := t.TempDir()

	badType := filepath.Join(dir, "bad.yaml")
	content := "data_types:\n  - type: nonsense\n    keywords: [\"x\"]\nlisting_types:\n  - type: bulk_dump\n    keywords: [\"dump\"]\n"
	if err := os.WriteFile(badType, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLexicon(badType); err == nil {
		t.Error("expected error for unknown data type")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("version: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLexicon(empty); err == nil {
		t.Error("expected error for empty lexicon")
	}
}
