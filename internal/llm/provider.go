package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leakbench/leakbench/internal/model"
)

// Provider defines the interface for oracle providers. The oracle is
// advisory and optional: callers must tolerate its absence and treat any
// malformed or missing response as a skippable failure.
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractPrices asks the oracle for structured price observations in
	// a text span that the pattern extractor may have missed
	ExtractPrices(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// SuggestPrice asks the oracle for an advisory price opinion on a spec
	SuggestPrice(ctx context.Context, req PriceRequest) (*PriceResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for oracle-based extraction
type ExtractRequest struct {
	// DocID identifies the source document
	DocID string

	// Text is the chunk to analyze
	Text string

	// Model is the specific model to use (provider-specific)
	Model string
}

// ExtractedItem is one price observation reported by the oracle
type ExtractedItem struct {
	Amount      string  `json:"amount"`   // decimal string, parsed by the caller
	Currency    string  `json:"currency"` // ISO code
	DataType    string  `json:"data_type,omitempty"`
	ListingType string  `json:"listing_type,omitempty"`
	Region      string  `json:"region,omitempty"`
	Snippet     string  `json:"snippet,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// ExtractResponse contains the oracle's extraction output
type ExtractResponse struct {
	Items      []ExtractedItem
	Model      string
	TokensUsed int
}

// PriceRequest contains the input for an advisory pricing opinion
type PriceRequest struct {
	Spec  model.ItemSpec
	Model string
}

// PriceResponse contains the oracle's pricing opinion
type PriceResponse struct {
	PriceUSD   string `json:"price_usd"` // decimal string
	Reasoning  string `json:"reasoning"`
	Model      string `json:"-"`
	TokensUsed int    `json:"-"`
}

// Config holds oracle provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout per API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 2000,
	}
}

const extractSystemPrompt = "You extract black-market price observations from text. " +
	"Respond with JSON only, no prose and no code fences."

// BuildExtractPrompt constructs the prompt for structured price extraction
func BuildExtractPrompt(text string) string {
	return fmt.Sprintf(`Find every price for exposed personal data mentioned in the text below.

Return a JSON object of the form:
{"items": [{"amount": "12.50", "currency": "USD", "data_type": "...", "listing_type": "...", "region": "...", "snippet": "...", "confidence": 0.8}]}

Rules:
- "amount" is the numeric price as a decimal string, always positive.
- "currency" is an ISO code (USD, EUR, GBP, CNY). Never guess from a bare symbol; omit the item instead.
- "data_type" is one of: %s. Omit the field if unsure.
- "listing_type" is one of: %s. Omit the field if unsure.
- "region" is a short region code such as US, EU, CN. Omit if not stated.
- "snippet" quotes the surrounding sentence verbatim.
- Return {"items": []} when the text mentions no prices.

Text:
%s`, joinDataTypes(), joinListingTypes(), text)
}

const priceSystemPrompt = "You are a pricing advisor for exposed personal data records. " +
	"Respond with JSON only, no prose and no code fences."

// BuildPricePrompt constructs the prompt for an advisory pricing opinion
func BuildPricePrompt(spec model.ItemSpec) string {
	return fmt.Sprintf(`Estimate a fair market price in USD for the following listing.

Return a JSON object of the form:
{"price_usd": "42.00", "reasoning": "..."}

Listing:
- data type: %s
- listing type: %s
- region: %s
- freshness: %d days old
- completeness: %s
- exclusivity: %s
- seller reputation: %s
- demand: %s`,
		spec.DataType, spec.ListingType, spec.Region,
		spec.Features.FreshnessDays, spec.Features.Completeness,
		spec.Features.Exclusivity, spec.Features.Reputation, spec.Features.Demand)
}

// ParseExtractPayload decodes the oracle's extraction reply. A reply that
// is not valid JSON of the documented shape is an error the caller skips.
func ParseExtractPayload(raw string) ([]ExtractedItem, error) {
	var payload struct {
		Items []ExtractedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("malformed oracle payload: %w", err)
	}
	return payload.Items, nil
}

// ParsePricePayload decodes the oracle's pricing reply
func ParsePricePayload(raw string) (*PriceResponse, error) {
	var payload PriceResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return nil, fmt.Errorf("malformed oracle payload: %w", err)
	}
	if payload.PriceUSD == "" {
		return nil, fmt.Errorf("oracle payload missing price_usd")
	}
	return &payload, nil
}

// stripFences removes a markdown code fence if the model added one anyway
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func joinDataTypes() string {
	parts := make([]string, len(model.DataTypes))
	for i, dt := range model.DataTypes {
		parts[i] = string(dt)
	}
	return strings.Join(parts, ", ")
}

func joinListingTypes() string {
	parts := make([]string, len(model.ListingTypes))
	for i, lt := range model.ListingTypes {
		parts[i] = string(lt)
	}
	return strings.Join(parts, ", ")
}
