package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/leakbench/leakbench/internal/aggregate"
	"github.com/leakbench/leakbench/internal/artifact"
	"github.com/leakbench/leakbench/internal/cache"
	"github.com/leakbench/leakbench/internal/extract"
	"github.com/leakbench/leakbench/internal/llm"
	"github.com/leakbench/leakbench/internal/model"
	"github.com/leakbench/leakbench/internal/normalize"
	"github.com/leakbench/leakbench/internal/taxonomy"
	"github.com/leakbench/leakbench/internal/worker"
)

// Pipeline orchestrates one corpus run: extract, normalize, classify,
// aggregate, persist. Extraction fans out across a worker pool; the
// later phases are sequential and cheap.
type Pipeline struct {
	pattern    *extract.PriceExtractor
	oracle     *extract.OracleExtractor // nil when no provider configured
	normalizer *normalize.Normalizer
	mapper     *taxonomy.Mapper
	config     *model.Config
	log        zerolog.Logger
}

// NewPipeline wires a pipeline from configuration. A configured oracle
// that fails to initialize degrades to pattern-only extraction with a
// warning rather than failing the run.
func NewPipeline(cfg *model.Config, log zerolog.Logger) (*Pipeline, error) {
	normalizer, err := normalize.NewNormalizer(cfg.Rates)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	lexicon := taxonomy.DefaultLexicon()
	if cfg.Taxonomy.LexiconFile != "" {
		lexicon, err = taxonomy.LoadLexicon(cfg.Taxonomy.LexiconFile)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: %w", err)
		}
	}

	var oracle *extract.OracleExtractor
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Oracle))
	if err != nil {
		log.Warn().Err(err).Msg("oracle disabled")
	} else if provider != nil {
		oracle = extract.NewOracleExtractor(provider, newOracleCache(cfg.Cache), cfg, log)
		log.Info().Str("provider", provider.Name()).Msg("oracle extraction enabled")
	}

	return &Pipeline{
		pattern:    extract.NewPriceExtractor(),
		oracle:     oracle,
		normalizer: normalizer,
		mapper:     taxonomy.NewMapper(lexicon),
		config:     cfg,
		log:        log,
	}, nil
}

// newOracleCache picks the cache topology from configuration
func newOracleCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return cache.NewMemoryCache(cfg.TTL, 10*time.Minute)
}

// Run processes the configured corpus directory and writes the evidence
// and benchmark artifacts plus a run report.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	started := time.Now().UTC()
	cfg := p.config

	docs, failedDecode, err := LoadDocuments(cfg.Docs.Dir)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if failedDecode > 0 {
		p.log.Warn().Int("skipped", failedDecode).Msg("undecodable documents skipped")
	}
	p.log.Info().Int("docs", len(docs)).Str("dir", cfg.Docs.Dir).Msg("corpus loaded")

	evidence, stats := p.extractAll(ctx, docs)
	stats.DocsProcessed = len(docs)
	stats.DocsFailedDecode = failedDecode

	for i := range evidence {
		ev := &evidence[i]
		p.normalizer.Normalize(ev)
		if ev.Excluded != "" {
			stats.Unnormalizable++
			continue
		}
		if ev.Approximate {
			stats.Approximate++
		}
		p.mapper.Classify(ev)
		if ev.Excluded != "" {
			stats.Unclassified++
		}
	}

	bench := aggregate.Build(evidence)
	for _, row := range bench.Rows {
		stats.Aggregated += row.SampleCount
	}

	if err := artifact.SaveEvidence(cfg.Output.EvidencePath, evidence); err != nil {
		return nil, err
	}
	if err := artifact.SaveBenchmark(cfg.Output.BenchmarkPath, bench); err != nil {
		return nil, err
	}

	report := &model.RunReport{
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
		DocsDir:       cfg.Docs.Dir,
		EvidencePath:  cfg.Output.EvidencePath,
		BenchmarkPath: cfg.Output.BenchmarkPath,
		Stats:         stats,
		BenchmarkRows: len(bench.Rows),
	}

	p.log.Info().
		Int("evidence", len(evidence)).
		Int("aggregated", stats.Aggregated).
		Int("dropped", stats.Dropped()).
		Int("rows", report.BenchmarkRows).
		Msg("run complete")

	return report, nil
}

// extractAll fans document extraction out over the worker pool and
// returns all candidates in deterministic order.
func (p *Pipeline) extractAll(ctx context.Context, docs []Document) ([]model.PriceEvidence, model.RunStats) {
	pool := worker.NewPool(p.config.Concurrency.Workers)
	pool.Start(ctx)

	for _, doc := range docs {
		pool.Submit(&extractJob{doc: doc, pipeline: p})
	}
	results := pool.Wait()

	var evidence []model.PriceEvidence
	var stats model.RunStats
	for _, r := range results {
		res := r.(*extractResult)
		evidence = append(evidence, res.evidence...)
		stats.PatternEvidence += res.patternCount
		stats.OracleEvidence += res.oracleCount
		stats.OracleFailures += res.oracle.Failures
	}

	// Pool results arrive in completion order; re-impose document order
	// so two runs over the same corpus produce identical artifacts.
	sort.SliceStable(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.Source.DocID != b.Source.DocID {
			return a.Source.DocID < b.Source.DocID
		}
		if a.Source.Offset != b.Source.Offset {
			return a.Source.Offset < b.Source.Offset
		}
		return a.Extractor < b.Extractor
	})

	return evidence, stats
}

// extractJob extracts one document on the worker pool
type extractJob struct {
	doc      Document
	pipeline *Pipeline
}

type extractResult struct {
	evidence     []model.PriceEvidence
	patternCount int
	oracleCount  int
	oracle       extract.OracleStats
}

func (r *extractResult) GetError() error { return nil }

// Execute runs pattern extraction, then oracle extraction when enabled.
// The two candidate sets are concatenated without deduplication.
func (j *extractJob) Execute(ctx context.Context) worker.Result {
	p := j.pipeline
	res := &extractResult{}

	pattern := p.pattern.Extract(j.doc.Text, j.doc.ID, j.doc.ObservedDate)
	res.evidence = append(res.evidence, pattern...)
	res.patternCount = len(pattern)

	if p.oracle != nil {
		oracleEv, stats := p.oracle.Extract(ctx, j.doc.ID, j.doc.Text, j.doc.ObservedDate)
		res.evidence = append(res.evidence, oracleEv...)
		res.oracleCount = len(oracleEv)
		res.oracle = stats
	}

	return res
}
