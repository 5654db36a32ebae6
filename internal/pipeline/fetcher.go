package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leakbench/leakbench/internal/model"
	"github.com/leakbench/leakbench/internal/util"
	"github.com/leakbench/leakbench/internal/worker"
)

const fetchAttempts = 3

// fetchSleepFunc is replaceable in tests to avoid real backoff delays
var fetchSleepFunc = time.Sleep

// Fetcher downloads curated public sources (research posts, abuse
// reports, indexed forum mirrors) into the corpus directory. Fetched
// pages are reduced to visible text and saved with a date-prefixed name
// so the pipeline picks up the observation date automatically.
//
// The fetcher is polite: robots.txt is honored and requests are
// rate-limited per host.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	destDir    string

	robots  *util.RobotsChecker
	limiter *worker.Limiter

	log zerolog.Logger
}

// NewFetcher creates a fetcher that saves into destDir
func NewFetcher(cfg *model.Config, destDir string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		destDir:   destDir,
		robots:    util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		limiter:   worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		log:       log,
	}
}

// FetchURL downloads one source and returns the saved document path.
// Transient failures (5xx, 429, connection trouble) are retried with
// backoff; anything else fails immediately.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (string, error) {
	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			fetchSleepFunc(time.Duration(attempt-1) * 500 * time.Millisecond)
		}

		path, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return path, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryableFetchError(err) {
			return "", err
		}
		f.log.Debug().Err(err).Str("url", rawURL).Int("attempt", attempt).Msg("retrying fetch")
	}

	return "", lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text, err = VisibleText(text)
		if err != nil {
			return "", fmt.Errorf("extract text: %w", err)
		}
	}

	path := filepath.Join(f.destDir, docName(resp.Request.URL.String()))
	if err := os.MkdirAll(f.destDir, 0o755); err != nil {
		return "", fmt.Errorf("create corpus dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	f.log.Info().Str("url", rawURL).Str("doc", path).Int("bytes", len(text)).Msg("fetched source")
	return path, nil
}

// isRetryableFetchError classifies a fetch error as transient or not.
// Server-side trouble and rate limiting are worth a retry; client errors
// and malformed requests are not.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"status: 500", "status: 502", "status: 503", "status: 504", "status: 429"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return strings.HasPrefix(msg, "fetch: ")
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// docName builds a date-prefixed corpus file name from the final URL.
// The fetch date stands in for the observation date.
func docName(rawURL string) string {
	slug := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		slug = parsed.Host + "-" + strings.Trim(parsed.Path, "/")
	}
	slug = strings.Trim(slugRe.ReplaceAllString(strings.ToLower(slug), "-"), "-")
	if slug == "" {
		slug = "source"
	}
	if len(slug) > 80 {
		slug = slug[:80]
	}
	return fmt.Sprintf("%s_%s.txt", time.Now().UTC().Format("2006-01-02"), slug)
}
