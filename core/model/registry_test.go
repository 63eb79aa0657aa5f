package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := OpenRegistry(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestRegistryPutGet(t *testing.T) {
	reg := openTestRegistry(t)
	original := newTestWeights()

	require.NoError(t, reg.Put("houses", original))

	loaded, err := reg.Get("houses")
	require.NoError(t, err)
	assertSameWeights(t, original, loaded)
}

func TestRegistryOverwrite(t *testing.T) {
	reg := openTestRegistry(t)
	first := newTestWeights()
	second := newTestWeights()
	second.Biases[0] = 42

	require.NoError(t, reg.Put("houses", first))
	require.NoError(t, reg.Put("houses", second))

	loaded, err := reg.Get("houses")
	require.NoError(t, err)
	assert.Equal(t, 42.0, loaded.Biases[0])
	assert.Equal(t, second.ID, loaded.ID)
}

func TestRegistryListAndDelete(t *testing.T) {
	reg := openTestRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Put(name, newTestWeights()))
	}

	entries, err := reg.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "mid", entries[1].Name)
	assert.Equal(t, "zeta", entries[2].Name)
	assert.Equal(t, []string{"A", "B", "C"}, entries[0].Classes)
	assert.NotEmpty(t, entries[0].ID)

	require.NoError(t, reg.Delete("mid"))
	entries, err = reg.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	err = reg.Delete("mid")
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestRegistryGetMissing(t *testing.T) {
	reg := openTestRegistry(t)
	_, err := reg.Get("absent")
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := openTestRegistry(t)

	assert.Error(t, reg.Put("", newTestWeights()))

	bad := newTestWeights()
	bad.Classes = bad.Classes[:2]
	assert.Error(t, reg.Put("bad", bad))

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistryPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.db")
	reg, err := OpenRegistry(path)
	require.NoError(t, err)
	require.NoError(t, reg.Put("houses", newTestWeights()))
	require.NoError(t, reg.Close())

	reg, err = OpenRegistry(path)
	require.NoError(t, err)
	defer reg.Close()

	_, err = reg.Get("houses")
	assert.NoError(t, err)
}
