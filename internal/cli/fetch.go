package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leakbench/leakbench/internal/logging"
	"github.com/leakbench/leakbench/internal/pipeline"
	"github.com/leakbench/leakbench/internal/worker"
)

var (
	fetchList    string
	fetchDest    string
	fetchWorkers int
	fetchTimeout time.Duration
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download curated public sources into the corpus directory",
	Long: `Fetch downloads a curated list of public sources (research posts,
abuse reports, indexed forum mirrors) into the corpus directory, one URL
per line with #-comments. Pages are reduced to visible text and saved
under a date-prefixed name, ready for 'leakbench run'.

Fetching honors robots.txt and rate-limits requests per host.

Example:
  leakbench fetch --list sources.txt --dest ./corpus`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchList, "list", "", "source list file (required)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "destination directory (corpus dir from config when empty)")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 0, "concurrent fetches (config default when 0)")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 10*time.Minute, "overall fetch timeout")
	_ = fetchCmd.MarkFlagRequired("list")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dest := fetchDest
	if dest == "" {
		dest = cfg.Docs.Dir
	}
	workers := fetchWorkers
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	fetcher := pipeline.NewFetcher(cfg, dest, log)
	batch := worker.NewBatchFetcher(fetcher, workers)

	results, err := batch.ProcessFile(ctx, fetchList)
	if err != nil {
		return err
	}

	var fetched, failed int
	for _, result := range results {
		if result.Error != nil {
			failed++
			log.Warn().Err(result.Error).Str("url", result.URL).Msg("fetch failed")
			continue
		}
		fetched++
	}

	fmt.Printf("Fetched %d sources into %s (%d failed)\n", fetched, dest, failed)
	if failed > 0 && fetched == 0 {
		return fmt.Errorf("all %d fetches failed", failed)
	}
	return nil
}
