package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leakbench/leakbench/internal/artifact"
	"github.com/leakbench/leakbench/internal/estimate"
	"github.com/leakbench/leakbench/internal/llm"
	"github.com/leakbench/leakbench/internal/model"
)

var (
	estBenchmark string
	estSpecFile  string
	estOut       string
	estOracle    bool
	estTimeout   time.Duration
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price an item spec against a persisted benchmark",
	Long: `Estimate prices one item spec against a benchmark artifact using the
fixed rule set: the p50 of the matching cell, six multiplicative
modifiers, a flat VIP addend, and a sample-size-scaled confidence.

The spec is a JSON file:
  {
    "data_type": "credit_card",
    "listing_type": "retail_lookup",
    "region": "US",
    "features": {"freshness_days": 45, "exclusivity": "single_seller"}
  }

Unknown feature keys are ignored; missing ones take documented defaults.

With --oracle, a configured oracle adds an advisory opinion to the
output. It never changes the rule-based estimate.

Example:
  leakbench estimate --benchmark benchmark.json --spec item.json
  leakbench estimate --benchmark benchmark.json --spec item.json --oracle`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVar(&estBenchmark, "benchmark", "benchmark.json", "benchmark artifact path")
	estimateCmd.Flags().StringVar(&estSpecFile, "spec", "", "item spec JSON file (required)")
	estimateCmd.Flags().StringVar(&estOut, "out", "", "write the result JSON to this path instead of stdout")
	estimateCmd.Flags().BoolVar(&estOracle, "oracle", false, "add an advisory oracle opinion")
	estimateCmd.Flags().DurationVar(&estTimeout, "timeout", 2*time.Minute, "oracle timeout")
	_ = estimateCmd.MarkFlagRequired("spec")
}

// estimateOutput is the command's JSON output: the deterministic result,
// plus the advisory opinion when requested
type estimateOutput struct {
	*model.EstimationResult

	OracleAdvisory *oracleAdvisory `json:"oracle_advisory,omitempty"`
}

type oracleAdvisory struct {
	PriceUSD  string `json:"price_usd"`
	Reasoning string `json:"reasoning,omitempty"`
	Provider  string `json:"provider"`
	Error     string `json:"error,omitempty"`
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec, err := readSpec(estSpecFile, cfg.Estimator.AllowNegativeVIP)
	if err != nil {
		return err
	}

	bench, err := artifact.LoadBenchmark(estBenchmark)
	if err != nil {
		return err
	}

	estimator, err := estimate.NewEstimator(bench)
	if err != nil {
		return err
	}

	result, err := estimator.Estimate(spec)
	if err != nil {
		return err
	}

	output := estimateOutput{EstimationResult: result}
	if estOracle {
		output.OracleAdvisory = askOracle(cfg, spec)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if estOut != "" {
		return os.WriteFile(estOut, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// readSpec parses the item spec file, validating enums and features
func readSpec(path string, allowNegativeVIP bool) (model.ItemSpec, error) {
	var raw struct {
		DataType    string         `json:"data_type"`
		ListingType string         `json:"listing_type"`
		Region      string         `json:"region"`
		Features    map[string]any `json:"features"`
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.ItemSpec{}, fmt.Errorf("read spec: %w", err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.ItemSpec{}, fmt.Errorf("parse spec: %w", err)
	}

	dataType, err := model.ParseDataType(raw.DataType)
	if err != nil {
		return model.ItemSpec{}, err
	}
	listingType, err := model.ParseListingType(raw.ListingType)
	if err != nil {
		return model.ItemSpec{}, err
	}
	features, err := model.ParseFeatures(raw.Features, allowNegativeVIP)
	if err != nil {
		return model.ItemSpec{}, fmt.Errorf("spec features: %w", err)
	}

	region := raw.Region
	if region == "" {
		region = model.RegionAny
	}

	return model.ItemSpec{
		DataType:    dataType,
		ListingType: listingType,
		Region:      region,
		Features:    features,
	}, nil
}

// askOracle fetches the advisory opinion. Oracle trouble is reported in
// the output, never as a command failure.
func askOracle(cfg *model.Config, spec model.ItemSpec) *oracleAdvisory {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return &oracleAdvisory{Provider: cfg.Oracle.Provider, Error: err.Error()}
	}
	if provider == nil {
		return &oracleAdvisory{Error: "no oracle provider configured"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), estTimeout)
	defer cancel()

	resp, err := provider.SuggestPrice(ctx, llm.PriceRequest{Spec: spec})
	if err != nil {
		return &oracleAdvisory{Provider: provider.Name(), Error: err.Error()}
	}

	return &oracleAdvisory{
		PriceUSD:  resp.PriceUSD,
		Reasoning: resp.Reasoning,
		Provider:  provider.Name(),
	}
}
