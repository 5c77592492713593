package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodybest/backend/internal/domain"
)

func TestLoad(t *testing.T) {
	catalog, seeds, err := Load()
	require.NoError(t, err)
	require.NotNil(t, catalog)

	assert.Greater(t, catalog.Len(), 10)
	assert.NotEmpty(t, seeds)

	// Load is memoized
	again, _, err := Load()
	require.NoError(t, err)
	assert.Same(t, catalog, again)
}

func TestLoad_CatalogContents(t *testing.T) {
	catalog, _, err := Load()
	require.NoError(t, err)

	apple, ok := catalog.Get("ябълка")
	require.True(t, ok)
	assert.Equal(t, 100.0, apple.ReferenceGrams)
	assert.Equal(t, 52.0, apple.Macros.Calories)
	require.NotEmpty(t, apple.Measures)
	assert.Equal(t, "бр.", apple.Measures[0].Label)
	assert.Equal(t, 150.0, apple.Measures[0].Grams)

	canonical, ok := catalog.CanonicalFor("ябълки")
	require.True(t, ok)
	assert.Equal(t, "ябълка", canonical)
}

func TestLoad_SeedContents(t *testing.T) {
	_, seeds, err := Load()
	require.NoError(t, err)

	var found bool
	for _, s := range seeds {
		if s.Food == "кафе с мляко" {
			found = true
			assert.Equal(t, "1 чаша", s.Quantity)
			assert.Equal(t, 35.0, s.Macros.Calories)
		}
	}
	assert.True(t, found, "expected the coffee seed in the override table")
}

func TestNewCatalog(t *testing.T) {
	catalog := NewCatalog([]domain.Product{
		{Name: "  Тест  ", Aliases: []string{"Проба", ""}, Macros: domain.MacroProfile{Calories: 10}},
		{Name: ""},
	})

	assert.Equal(t, 1, catalog.Len())

	p, ok := catalog.Get("тест")
	require.True(t, ok)
	assert.Equal(t, 100.0, p.ReferenceGrams, "missing reference weight defaults to 100 g")

	canonical, ok := catalog.CanonicalFor("проба")
	require.True(t, ok)
	assert.Equal(t, "тест", canonical)
}

func TestCatalog_KeysSorted(t *testing.T) {
	catalog := NewCatalog([]domain.Product{
		{Name: "ориз"},
		{Name: "банан"},
		{Name: "ябълка"},
	})

	assert.Equal(t, []string{"банан", "ориз", "ябълка"}, catalog.Keys())
}
