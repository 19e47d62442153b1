package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogozo/service-storefront/internal/catalog"
)

func TestStaticOmitsUnknownIDs(t *testing.T) {
	t.Parallel()

	s := catalog.NewStatic(
		catalog.Product{ID: "ring-1", Name: "Gold ring", UnitPrice: decimal.NewFromInt(500)},
		catalog.Product{ID: "bad", Name: "Broken", UnitPrice: decimal.NewFromInt(-1)},
	)

	got, err := s.Resolve(context.Background(), []string{"ring-1", "ghost", "ring-1", "bad"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gold ring", got["ring-1"].Name)
}

func TestStaticCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.NewStatic().Resolve(ctx, []string{"ring-1"})
	require.ErrorIs(t, err, catalog.ErrUnavailable)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - id: ring-1
    name: Gold ring
    price: 500
    image: https://images.example.com/ring-1.jpg
  - id: pendant
    name: Silver pendant
    price: "129.90"
`), 0o600))

	s, err := catalog.LoadFile(path)
	require.NoError(t, err)

	got, err := s.Resolve(context.Background(), []string{"ring-1", "pendant"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got["ring-1"].UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "https://images.example.com/ring-1.jpg", got["ring-1"].ImageRef)
	assert.True(t, got["pendant"].UnitPrice.Equal(decimal.RequireFromString("129.90")))
}

func TestLoadFileRejectsNegativePrice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - id: x\n    price: -3\n"), 0o600))

	_, err := catalog.LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
