package fiscalimport

import (
	"context"
	"errors"
	"strings"

	"github.com/fiscal/backend/internal/domain/catalog"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultAutoAcceptThreshold is the fuzzy confidence bar when none is configured
const DefaultAutoAcceptThreshold = 0.7

// searchCandidateLimit bounds how many catalog candidates one fuzzy lookup scores
const searchCandidateLimit = 10

// MatchOutcome is the matcher's verdict for one line item
type MatchOutcome struct {
	ProductID  uuid.UUID
	Confidence float64
	Found      bool // a candidate exists, regardless of acceptance
	AutoAccept bool // confidence cleared the threshold
}

// ItemMatcher resolves document line items against the product catalog.
// Exact code matches always win; fuzzy description matches are auto-accepted
// only strictly above the threshold.
type ItemMatcher struct {
	products  catalog.ProductRepository
	threshold float64
}

// NewItemMatcher creates a new ItemMatcher
func NewItemMatcher(products catalog.ProductRepository, threshold float64) *ItemMatcher {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultAutoAcceptThreshold
	}
	return &ItemMatcher{products: products, threshold: threshold}
}

// Match attempts to resolve one line item to a catalog product
func (m *ItemMatcher) Match(ctx context.Context, item *fiscal.LineItem) (MatchOutcome, error) {
	// Exact SKU or barcode match wins outright
	if item.ProductCode != "" {
		product, err := m.products.FindBySKUOrBarcode(ctx, item.ProductCode)
		if err == nil {
			return MatchOutcome{ProductID: product.ID, Confidence: 1.0, Found: true, AutoAccept: true}, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return MatchOutcome{}, err
		}
	}

	if strings.TrimSpace(item.Description) == "" {
		return MatchOutcome{}, nil
	}

	candidates, err := m.products.SearchByText(ctx, searchPrefix(item.Description), searchCandidateLimit)
	if err != nil {
		return MatchOutcome{}, err
	}

	var best MatchOutcome
	for _, candidate := range candidates {
		confidence := TokenSetSimilarity(item.Description, candidate.Name)
		if confidence > best.Confidence {
			best = MatchOutcome{ProductID: candidate.ID, Confidence: confidence, Found: true}
		}
	}

	// Strictly greater: a score of exactly the threshold stays pending
	best.AutoAccept = best.Found && best.Confidence > m.threshold

	return best, nil
}

// searchPrefix returns the first three words of a description, the part most
// likely to name the product rather than qualify it
func searchPrefix(description string) string {
	words := strings.Fields(description)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// TokenSetSimilarity scores two strings by Jaccard similarity over their
// lower-cased word sets. The result is in [0, 1] and symmetric.
func TokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		set[word] = struct{}{}
	}
	return set
}
