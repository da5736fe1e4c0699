package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

func TestFileStoreRoundtrip(t *testing.T) {
	catalogue := testCatalogue()
	product, err := catalogue.Product("iron_ingot")
	require.NoError(t, err)

	a, err := market.RestoreOffer("a", "alice", product, market.TypeSell, 10, 4, 5)
	require.NoError(t, err)
	b, err := market.NewOffer("b", "bob", product, market.TypeBuy, 3, 9)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshots", "offers.bin")
	store := NewFileStore(path, zerolog.Nop())

	require.NoError(t, store.Save([]*market.Offer{a, b}))

	got := store.Load(catalogue)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID())
	assert.Equal(t, int64(4), got[0].FilledUnits())
	assert.Equal(t, "b", got[1].ID())
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.bin"), zerolog.Nop())
	assert.Empty(t, store.Load(testCatalogue()))
}

func TestFileStoreRecoversPartialSnapshot(t *testing.T) {
	catalogue := testCatalogue()
	product, err := catalogue.Product("iron_ingot")
	require.NoError(t, err)

	a, err := market.NewOffer("a", "alice", product, market.TypeSell, 10, 5)
	require.NoError(t, err)
	b, err := market.NewOffer("b", "bob", product, market.TypeSell, 3, 6)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "offers.bin")
	store := NewFileStore(path, zerolog.Nop())
	require.NoError(t, store.Save([]*market.Offer{a, b}))

	// Truncate into the middle of the second record.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-10], 0o644))

	got := store.Load(catalogue)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID())
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	catalogue := testCatalogue()
	product, err := catalogue.Product("iron_ingot")
	require.NoError(t, err)

	offer, err := market.NewOffer("a", "alice", product, market.TypeSell, 10, 5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "offers.bin")
	store := NewFileStore(path, zerolog.Nop())

	require.NoError(t, store.Save([]*market.Offer{offer}))
	require.NoError(t, store.Save(nil))

	assert.Empty(t, store.Load(catalogue))
}
