package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leakbench/leakbench/internal/model"
)

const snippetRadius = 160 // context window radius around a match, in bytes

// amount matches plain or thousands-separated numbers with an optional
// decimal part
const amount = `(?:[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`

// priceRe detects symbol-prefixed ("$1,200.50") and code-suffixed
// ("40 USD") price tokens. Each alternative captures the currency token
// and the amount separately.
var priceRe = regexp.MustCompile(
	`([$€£¥])\s?(` + amount + `)` + // symbol-prefixed
		`|(` + amount + `)\s?(USD|EUR|GBP|CNY)\b`, // code-suffixed
)

// PriceExtractor finds candidate price observations in plain text.
// It is a pure function over the text: extracting twice from the same
// input yields the same sequence.
type PriceExtractor struct{}

// NewPriceExtractor creates a new pattern-based price extractor
func NewPriceExtractor() *PriceExtractor {
	return &PriceExtractor{}
}

// Extract scans text and returns one PriceEvidence candidate per
// currency-amount token. Candidates carry no taxonomy yet; the mapper
// classifies them later from the context snippet.
func (e *PriceExtractor) Extract(text, docID string, observed *model.Date) []model.PriceEvidence {
	matches := priceRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	evidence := make([]model.PriceEvidence, 0, len(matches))
	for _, m := range matches {
		currency, rawAmount := pickGroups(text, m)
		if currency == "" || rawAmount == "" {
			continue
		}

		value, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
		if err != nil || !value.IsPositive() {
			continue
		}

		evidence = append(evidence, model.PriceEvidence{
			RawAmount:    value,
			RawCurrency:  currency,
			ObservedDate: observed,
			Source:       model.SourceLocator{DocID: docID, Offset: m[0]},
			Snippet:      Snippet(text, m[0], m[1]),
			Extractor:    "pattern",
		})
	}

	return evidence
}

// pickGroups returns (currency, amount) from whichever alternative matched
func pickGroups(text string, m []int) (string, string) {
	// Groups 1,2: symbol + amount. Groups 3,4: amount + code.
	if m[2] >= 0 && m[4] >= 0 {
		return text[m[2]:m[3]], text[m[4]:m[5]]
	}
	if m[6] >= 0 && m[8] >= 0 {
		return text[m[8]:m[9]], text[m[6]:m[7]]
	}
	return "", ""
}

// Snippet returns a whitespace-collapsed context window around [start, end)
func Snippet(text string, start, end int) string {
	lo := start - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetRadius
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}

// Chunk is a slice of a document with its offset in the original text
type Chunk struct {
	Text   string
	Offset int
}

// ChunkText splits text into overlapping chunks for oracle extraction,
// breaking at word or sentence boundaries where possible.
func ChunkText(text string, maxChars, overlap int) []Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return []Chunk{{Text: text}}
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end >= len(text) {
			end = len(text)
		} else {
			// Back up to the nearest boundary, but never past half a chunk
			for i := end; i > start+maxChars/2; i-- {
				c := text[i-1]
				if c == ' ' || c == '\n' || c == '.' || c == '!' || c == '?' {
					end = i
					break
				}
			}
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			chunks = append(chunks, Chunk{Text: text[start:end], Offset: start})
		}

		if end == len(text) {
			break
		}
		start = end - overlap
	}

	return chunks
}

// HasPriceSignal is a cheap gate used to decide whether a chunk is worth
// an oracle call at all.
func HasPriceSignal(text string) bool {
	if priceRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range []string{"price", "cost", "fee", "per record", "per account", "bulk", "wholesale"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
