package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leakbench/leakbench/internal/model"
)

// Artifacts are versioned JSON files. Readers ignore unknown fields, so
// a newer writer can add fields without breaking older consumers; a
// version bump is only needed when meaning changes.

const evidenceVersion = 1
const benchmarkVersion = 1

// EvidenceFile is the on-disk shape of an evidence artifact. Excluded
// records are kept alongside aggregatable ones for audit.
type EvidenceFile struct {
	Version     int                   `json:"version"`
	GeneratedAt time.Time             `json:"generated_at"`
	Evidence    []model.PriceEvidence `json:"evidence"`
}

// BenchmarkFile is the on-disk shape of a benchmark artifact
type BenchmarkFile struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`

	Benchmark model.Benchmark `json:"benchmark"`
}

// SaveEvidence writes the evidence artifact
func SaveEvidence(path string, evidence []model.PriceEvidence) error {
	return writeJSON(path, EvidenceFile{
		Version:     evidenceVersion,
		GeneratedAt: time.Now().UTC(),
		Evidence:    evidence,
	})
}

// LoadEvidence reads an evidence artifact
func LoadEvidence(path string) ([]model.PriceEvidence, error) {
	var file EvidenceFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if file.Version > evidenceVersion {
		return nil, fmt.Errorf("evidence artifact %s: unsupported version %d", path, file.Version)
	}
	return file.Evidence, nil
}

// SaveBenchmark writes the benchmark artifact
func SaveBenchmark(path string, bench model.Benchmark) error {
	return writeJSON(path, BenchmarkFile{
		Version:     benchmarkVersion,
		GeneratedAt: time.Now().UTC(),
		Benchmark:   bench,
	})
}

// LoadBenchmark reads a benchmark artifact and validates key uniqueness
func LoadBenchmark(path string) (model.Benchmark, error) {
	var file BenchmarkFile
	if err := readJSON(path, &file); err != nil {
		return model.Benchmark{}, err
	}
	if file.Version > benchmarkVersion {
		return model.Benchmark{}, fmt.Errorf("benchmark artifact %s: unsupported version %d", path, file.Version)
	}
	if _, err := file.Benchmark.Index(); err != nil {
		return model.Benchmark{}, fmt.Errorf("benchmark artifact %s: %w", path, err)
	}
	return file.Benchmark, nil
}

// SaveReport writes the run report next to the artifacts
func SaveReport(path string, report model.RunReport) error {
	return writeJSON(path, report)
}

// writeJSON marshals indented JSON and writes it via a temp file in the
// same directory, so a crash mid-write never leaves a truncated artifact
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
