package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// MockFetcher implements Fetcher
type MockFetcher struct {
	ShouldError bool
}

func (m *MockFetcher) FetchURL(ctx context.Context, url string) (string, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return "", errors.New("fetch error")
	}
	return "/corpus/2026-08-23_doc.txt", nil
}

func TestBatchFetcher_ProcessURLs(t *testing.T) {
	fetcher := &MockFetcher{}
	batch := NewBatchFetcher(fetcher, 2)

	urls := []string{"http://example.com", "http://example.org", "http://example.net"}
	results := batch.ProcessURLs(context.Background(), urls)

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Path == "" {
				t.Error("expected saved path for successful fetch")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchFetcher_ProcessURLs_Error(t *testing.T) {
	fetcher := &MockFetcher{ShouldError: true}
	batch := NewBatchFetcher(fetcher, 2)

	results := batch.ProcessURLs(context.Background(), []string{"http://example.com"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Path != "" {
		t.Error("expected empty path on error")
	}
}

func TestBatchFetcher_ProcessURLs_Empty(t *testing.T) {
	batch := NewBatchFetcher(&MockFetcher{}, 2)

	results := batch.ProcessURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `http://example.com
# comment
https://example.org

http://example.net   `

	tmpfile, err := os.CreateTemp("", "urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://example.org", "http://example.net"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}

	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	_, err := ReadURLsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadURLsFromFile_Deduplication(t *testing.T) {
	content := `http://example.com
http://example.com`

	tmpfile, err := os.CreateTemp("", "urls_dedup")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	if len(urls) != 1 {
		t.Errorf("expected 1 URL after deduplication, got %d", len(urls))
	}
}

func TestFetchResult_GetError(t *testing.T) {
	r1 := &FetchResult{URL: "http://example.com", Error: nil}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("fetch failed")
	r2 := &FetchResult{URL: "http://example.com", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchFetcher_ProcessFile(t *testing.T) {
	content := "http://example.com\nhttps://example.org\n# comment\n\nhttp://example.net\n"

	tmpfile, err := os.CreateTemp("", "batch_urls")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	batch := NewBatchFetcher(&MockFetcher{}, 2)

	results, err := batch.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchFetcher_ProcessFile_NonExistent(t *testing.T) {
	batch := NewBatchFetcher(&MockFetcher{}, 2)

	_, err := batch.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
