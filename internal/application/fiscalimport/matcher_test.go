package fiscalimport

import (
	"context"
	"testing"

	"github.com/fiscal/backend/internal/domain/catalog"
	"github.com/fiscal/backend/internal/domain/fiscal"
	"github.com/fiscal/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKUOrBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) SearchByText(ctx context.Context, text string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, text, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func mustProduct(t *testing.T, code, name string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(code, name, "UN")
	require.NoError(t, err)
	return product
}

func TestItemMatcherMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("exact code match wins with full confidence", func(t *testing.T) {
		products := new(MockProductRepository)
		product := mustProduct(t, "SKU-001", "Agua Mineral 500ml")
		products.On("FindBySKUOrBarcode", ctx, "SKU-001").Return(product, nil)

		matcher := NewItemMatcher(products, 0.7)
		outcome, err := matcher.Match(ctx, &fiscal.LineItem{ProductCode: "SKU-001", Description: "Agua Mineral 500ml"})

		require.NoError(t, err)
		assert.True(t, outcome.AutoAccept)
		assert.Equal(t, product.ID, outcome.ProductID)
		assert.Equal(t, 1.0, outcome.Confidence)
		products.AssertNotCalled(t, "SearchByText", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to fuzzy match when code is unknown", func(t *testing.T) {
		products := new(MockProductRepository)
		product := mustProduct(t, "SKU-777", "Agua Mineral Natural 500ml")
		products.On("FindBySKUOrBarcode", ctx, "EXT-1").Return(nil, shared.ErrNotFound)
		products.On("SearchByText", ctx, "Agua Mineral Natural", searchCandidateLimit).
			Return([]catalog.Product{*product}, nil)

		matcher := NewItemMatcher(products, 0.7)
		outcome, err := matcher.Match(ctx, &fiscal.LineItem{ProductCode: "EXT-1", Description: "Agua Mineral Natural 500ml"})

		require.NoError(t, err)
		assert.True(t, outcome.Found)
		assert.True(t, outcome.AutoAccept)
		assert.Equal(t, 1.0, outcome.Confidence)
	})

	t.Run("confidence at the threshold stays pending", func(t *testing.T) {
		products := new(MockProductRepository)
		// 7 of 10 tokens shared gives exactly 0.7
		product := mustProduct(t, "SKU-888", "a b c d e f g x y z")
		products.On("FindBySKUOrBarcode", ctx, "EXT-2").Return(nil, shared.ErrNotFound)
		products.On("SearchByText", ctx, "a b c", searchCandidateLimit).
			Return([]catalog.Product{*product}, nil)

		matcher := NewItemMatcher(products, 0.7)
		outcome, err := matcher.Match(ctx, &fiscal.LineItem{ProductCode: "EXT-2", Description: "a b c d e f g"})

		require.NoError(t, err)
		assert.True(t, outcome.Found)
		assert.InDelta(t, 0.7, outcome.Confidence, 1e-9)
		assert.False(t, outcome.AutoAccept)
	})

	t.Run("picks the best of several candidates", func(t *testing.T) {
		products := new(MockProductRepository)
		weak := mustProduct(t, "SKU-100", "Refrigerante Laranja 2L")
		strong := mustProduct(t, "SKU-200", "Refrigerante Cola 2L")
		products.On("FindBySKUOrBarcode", ctx, "EXT-3").Return(nil, shared.ErrNotFound)
		products.On("SearchByText", ctx, "Refrigerante Cola 2L", searchCandidateLimit).
			Return([]catalog.Product{*weak, *strong}, nil)

		matcher := NewItemMatcher(products, 0.7)
		outcome, err := matcher.Match(ctx, &fiscal.LineItem{ProductCode: "EXT-3", Description: "Refrigerante Cola 2L"})

		require.NoError(t, err)
		assert.Equal(t, strong.ID, outcome.ProductID)
		assert.True(t, outcome.AutoAccept)
	})

	t.Run("returns empty outcome when nothing is searchable", func(t *testing.T) {
		products := new(MockProductRepository)

		matcher := NewItemMatcher(products, 0.7)
		outcome, err := matcher.Match(ctx, &fiscal.LineItem{Description: "   "})

		require.NoError(t, err)
		assert.False(t, outcome.Found)
		assert.False(t, outcome.AutoAccept)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		products := new(MockProductRepository)
		products.On("FindBySKUOrBarcode", ctx, "SKU-001").
			Return(nil, assert.AnError)

		matcher := NewItemMatcher(products, 0.7)
		_, err := matcher.Match(ctx, &fiscal.LineItem{ProductCode: "SKU-001", Description: "Agua"})

		require.Error(t, err)
	})
}

func TestNewItemMatcherThreshold(t *testing.T) {
	products := new(MockProductRepository)

	assert.Equal(t, DefaultAutoAcceptThreshold, NewItemMatcher(products, 0).threshold)
	assert.Equal(t, DefaultAutoAcceptThreshold, NewItemMatcher(products, -0.5).threshold)
	assert.Equal(t, DefaultAutoAcceptThreshold, NewItemMatcher(products, 1).threshold)
	assert.Equal(t, 0.85, NewItemMatcher(products, 0.85).threshold)
}

func TestTokenSetSimilarity(t *testing.T) {
	t.Run("identical strings score one", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenSetSimilarity("Agua Mineral 500ml", "agua MINERAL 500ml"))
	})

	t.Run("disjoint strings score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, TokenSetSimilarity("agua mineral", "cerveja pilsen"))
	})

	t.Run("is symmetric", func(t *testing.T) {
		a, b := "agua mineral natural 500ml", "agua com gas 500ml"
		assert.Equal(t, TokenSetSimilarity(a, b), TokenSetSimilarity(b, a))
	})

	t.Run("ignores word order and repetition", func(t *testing.T) {
		assert.Equal(t, 1.0, TokenSetSimilarity("cola refrigerante 2l", "refrigerante refrigerante cola 2l"))
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, TokenSetSimilarity("", "agua"))
		assert.Equal(t, 0.0, TokenSetSimilarity("agua", ""))
	})
}
