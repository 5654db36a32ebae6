package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leakbench/leakbench/internal/artifact"
	"github.com/leakbench/leakbench/internal/logging"
	"github.com/leakbench/leakbench/internal/pipeline"
)

var (
	runDocsDir    string
	runEvidence   string
	runBenchmark  string
	runReportPath string
	runRates      string
	runLexicon    string
	runWorkers    int
	runTimeout    time.Duration
	runOracle     string
	runModel      string
	runNoCache    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a document corpus into price benchmarks",
	Long: `Run executes the full pipeline over a corpus directory:
- Extract price observations (pattern pass, plus oracle pass if enabled)
- Normalize amounts to USD using dated exchange rates
- Classify observations against the taxonomy lexicon
- Aggregate per-cell p10/p50/p90 benchmarks
- Write the evidence and benchmark artifacts plus a run report

Example:
  leakbench run --docs ./corpus
  leakbench run --docs ./corpus --oracle openai --oracle-model gpt-4o-mini
  leakbench run --docs ./corpus --rates rates.yaml --lexicon lexicon.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDocsDir, "docs", "", "corpus directory (overrides config)")
	runCmd.Flags().StringVar(&runEvidence, "evidence", "", "evidence artifact path")
	runCmd.Flags().StringVar(&runBenchmark, "benchmark", "", "benchmark artifact path")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "write the run report JSON to this path")
	runCmd.Flags().StringVar(&runRates, "rates", "", "YAML exchange-rate table (built-ins when empty)")
	runCmd.Flags().StringVar(&runLexicon, "lexicon", "", "YAML taxonomy lexicon (built-in when empty)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "extraction workers (config default when 0)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	runCmd.Flags().StringVar(&runOracle, "oracle", "", "oracle provider (openai, ollama)")
	runCmd.Flags().StringVar(&runModel, "oracle-model", "", "oracle model name")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "disable the oracle response cache")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runDocsDir != "" {
		cfg.Docs.Dir = runDocsDir
	}
	if runEvidence != "" {
		cfg.Output.EvidencePath = runEvidence
	}
	if runBenchmark != "" {
		cfg.Output.BenchmarkPath = runBenchmark
	}
	if runRates != "" {
		cfg.Rates.File = runRates
	}
	if runLexicon != "" {
		cfg.Taxonomy.LexiconFile = runLexicon
	}
	if runWorkers > 0 {
		cfg.Concurrency.Workers = runWorkers
	}
	if runOracle != "" {
		cfg.Oracle.Provider = runOracle
	}
	if runModel != "" {
		cfg.Oracle.Model = runModel
	}
	if runNoCache {
		cfg.Cache.Enabled = false
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if runReportPath != "" {
		if err := artifact.SaveReport(runReportPath, *report); err != nil {
			return err
		}
	}

	fmt.Printf("Processed %d documents (%d undecodable skipped)\n",
		report.Stats.DocsProcessed, report.Stats.DocsFailedDecode)
	fmt.Printf("Evidence: %d pattern, %d oracle (%d oracle chunks skipped)\n",
		report.Stats.PatternEvidence, report.Stats.OracleEvidence, report.Stats.OracleFailures)
	fmt.Printf("Dropped: %d unnormalizable, %d unclassified; %d approximate\n",
		report.Stats.Unnormalizable, report.Stats.Unclassified, report.Stats.Approximate)
	fmt.Printf("Benchmark: %d rows from %d observations\n",
		report.BenchmarkRows, report.Stats.Aggregated)
	fmt.Printf("Wrote %s and %s\n", report.EvidencePath, report.BenchmarkPath)

	return nil
}
