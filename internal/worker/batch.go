package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Fetcher downloads one curated source URL and returns the path of the
// saved corpus document
type Fetcher interface {
	FetchURL(ctx context.Context, url string) (string, error)
}

// FetchJob fetches one URL on the pool
type FetchJob struct {
	URL     string
	Fetcher Fetcher
}

// Execute runs the fetch job
func (j *FetchJob) Execute(ctx context.Context) Result {
	path, err := j.Fetcher.FetchURL(ctx, j.URL)
	return &FetchResult{URL: j.URL, Path: path, Error: err}
}

// FetchResult is the outcome of one fetch job
type FetchResult struct {
	URL   string
	Path  string // saved document path, empty on failure
	Error error
}

// GetError returns the fetch error, if any
func (r *FetchResult) GetError() error {
	return r.Error
}

// BatchFetcher downloads many curated sources concurrently
type BatchFetcher struct {
	fetcher     Fetcher
	concurrency int
}

// NewBatchFetcher creates a batch fetcher
func NewBatchFetcher(fetcher Fetcher, concurrency int) *BatchFetcher {
	return &BatchFetcher{fetcher: fetcher, concurrency: concurrency}
}

// ProcessURLs fetches every URL and returns per-URL results. One failed
// source never aborts the batch.
func (b *BatchFetcher) ProcessURLs(ctx context.Context, urls []string) []*FetchResult {
	if len(urls) == 0 {
		return []*FetchResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start(ctx)

	for _, url := range urls {
		pool.Submit(&FetchJob{URL: url, Fetcher: b.fetcher})
	}
	results := pool.Wait()

	fetchResults := make([]*FetchResult, len(results))
	for i, result := range results {
		fetchResults[i] = result.(*FetchResult)
	}
	return fetchResults
}

// ProcessFile reads a curated source list and fetches every URL in it
func (b *BatchFetcher) ProcessFile(ctx context.Context, path string) ([]*FetchResult, error) {
	urls, err := ReadURLsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads a source list: one URL per line, blank lines
// and #-comments skipped, duplicates dropped
func ReadURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
