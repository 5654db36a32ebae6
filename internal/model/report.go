package model

import "time"

// RunStats counts every skip and fallback event in one pipeline run so
// the accuracy of a benchmark can be audited from the run output alone.
type RunStats struct {
	DocsProcessed    int `json:"docs_processed"`
	DocsFailedDecode int `json:"docs_failed_decode"`

	PatternEvidence int `json:"pattern_evidence"`
	OracleEvidence  int `json:"oracle_evidence"`
	OracleFailures  int `json:"oracle_failures"`

	Unnormalizable int `json:"unnormalizable"`
	Approximate    int `json:"approximate"`
	Unclassified   int `json:"unclassified"`

	Aggregated int `json:"aggregated"`
}

// Dropped returns the total number of evidence records excluded from aggregation
func (s RunStats) Dropped() int {
	return s.Unnormalizable + s.Unclassified
}

// RunReport is the summary emitted after one pipeline run
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	DocsDir       string `json:"docs_dir"`
	EvidencePath  string `json:"evidence_path"`
	BenchmarkPath string `json:"benchmark_path"`

	Stats         RunStats `json:"stats"`
	BenchmarkRows int      `json:"benchmark_rows"`
}
