package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/leakbench/leakbench/internal/cache"
	"github.com/leakbench/leakbench/internal/llm"
	"github.com/leakbench/leakbench/internal/model"
)

// OracleExtractor supplements the pattern extractor with candidates from
// an advisory oracle. Every oracle call is bounded by the provider's
// per-call timeout and retried a fixed number of times; a chunk whose
// calls all fail is skipped, never fatal. The two candidate sets are
// concatenated without deduplication - cell-level statistics in the
// aggregator absorb duplicates.
type OracleExtractor struct {
	provider llm.Provider
	model    string
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *rate.Limiter
	retries  int

	chunkSize    int
	chunkOverlap int

	log zerolog.Logger
}

// OracleStats counts oracle activity for one document
type OracleStats struct {
	Calls     int
	CacheHits int
	Failures  int // chunks skipped after exhausting retries
}

// NewOracleExtractor creates an oracle-backed extractor. The provider
// must be non-nil; callers fall back to pattern-only extraction when no
// oracle is configured.
func NewOracleExtractor(provider llm.Provider, c cache.Cache, cfg *model.Config, log zerolog.Logger) *OracleExtractor {
	retries := cfg.Oracle.Retries
	if retries < 0 {
		retries = 0
	}

	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}

	return &OracleExtractor{
		provider:     provider,
		model:        cfg.Oracle.Model,
		cache:        c,
		cacheTTL:     cfg.Cache.TTL,
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		retries:      retries,
		chunkSize:    cfg.Docs.ChunkSize,
		chunkOverlap: cfg.Docs.ChunkOverlap,
		log:          log,
	}
}

// Extract chunks the document, asks the oracle about chunks that carry a
// price signal, and converts the replies into evidence candidates.
func (e *OracleExtractor) Extract(ctx context.Context, docID, text string, observed *model.Date) ([]model.PriceEvidence, OracleStats) {
	var (
		evidence []model.PriceEvidence
		stats    OracleStats
	)

	for _, chunk := range ChunkText(text, e.chunkSize, e.chunkOverlap) {
		if !HasPriceSignal(chunk.Text) {
			continue
		}

		items, fromCache, err := e.extractChunk(ctx, docID, chunk.Text)
		if err != nil {
			stats.Failures++
			e.log.Warn().Err(err).Str("doc", docID).Int("offset", chunk.Offset).
				Msg("oracle extraction failed, skipping chunk")
			continue
		}
		if fromCache {
			stats.CacheHits++
		} else {
			stats.Calls++
		}

		for _, item := range items {
			if ev, ok := e.toEvidence(item, docID, chunk, observed); ok {
				evidence = append(evidence, ev)
			}
		}
	}

	return evidence, stats
}

// extractChunk resolves one chunk through the cache or the provider,
// retrying transient failures up to the configured bound.
func (e *OracleExtractor) extractChunk(ctx context.Context, docID, text string) ([]llm.ExtractedItem, bool, error) {
	key := cache.OracleKey(e.provider.Name(), e.model, text)
	if e.cache != nil {
		if data, found := e.cache.Get(key); found {
			var items []llm.ExtractedItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, true, nil
			}
			// Corrupt entry: fall through to a fresh call
			_ = e.cache.Delete(key)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}

		resp, err := e.provider.ExtractPrices(ctx, llm.ExtractRequest{DocID: docID, Text: text, Model: e.model})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			continue
		}

		if e.cache != nil {
			if data, err := json.Marshal(resp.Items); err == nil {
				_ = e.cache.Set(key, data, e.cacheTTL)
			}
		}
		return resp.Items, false, nil
	}

	return nil, false, lastErr
}

// toEvidence converts one oracle item into a PriceEvidence candidate.
// Taxonomy hints from the oracle are kept only when they name known
// enum values; anything else is left for the mapper.
func (e *OracleExtractor) toEvidence(item llm.ExtractedItem, docID string, chunk Chunk, observed *model.Date) (model.PriceEvidence, bool) {
	value, err := decimal.NewFromString(item.Amount)
	if err != nil || !value.IsPositive() {
		return model.PriceEvidence{}, false
	}
	if item.Currency == "" {
		return model.PriceEvidence{}, false
	}

	snippet := item.Snippet
	if snippet == "" {
		snippet = Snippet(chunk.Text, 0, 0)
	}

	ev := model.PriceEvidence{
		RawAmount:    value,
		RawCurrency:  item.Currency,
		ObservedDate: observed,
		Region:       item.Region,
		Source:       model.SourceLocator{DocID: docID, Offset: chunk.Offset},
		Snippet:      snippet,
		Extractor:    e.provider.Name(),
	}

	if dt, err := model.ParseDataType(item.DataType); err == nil {
		ev.DataType = dt
	}
	if lt, err := model.ParseListingType(item.ListingType); err == nil {
		ev.ListingType = lt
	}

	return ev, true
}
