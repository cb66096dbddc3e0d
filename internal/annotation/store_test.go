package annotation

import (
	"os"
	"path/filepath"
	"testing"

	"boxlabel/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b.png", []geometry.RectInt{{X: 1, Y: 2, Width: 3, Height: 4}})
	m.Set("a.png", nil)
	m.Set("b.png", []geometry.RectInt{{X: 5, Y: 6, Width: 7, Height: 8}})

	assert.Equal(t, []string{"b.png", "a.png"}, m.Keys())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Boxes())
	assert.True(t, m.Has("a.png"))
	assert.False(t, m.Has("c.png"))
	assert.Empty(t, m.Get("a.png"))
	assert.Equal(t, []geometry.RectInt{{X: 5, Y: 6, Width: 7, Height: 8}}, m.Get("b.png"))
}

func TestMapGetReturnsCopy(t *testing.T) {
	m := NewMap()
	m.Set("a.png", []geometry.RectInt{{X: 1, Y: 1, Width: 1, Height: 1}})

	got := m.Get("a.png")
	got[0].X = 99
	assert.Equal(t, 1, m.Get("a.png")[0].X)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "")
	assert.Equal(t, filepath.Join(dir, DefaultFileName), store.Path())
	assert.False(t, store.Exists())

	m := NewMap()
	m.Set(filepath.Join(dir, "a.png"), []geometry.RectInt{
		{X: 10, Y: 10, Width: 40, Height: 30},
		{X: 0, Y: 5, Width: 1, Height: 2},
		{X: 300, Y: 200, Width: 1024, Height: 768},
	})
	m.Set(filepath.Join(dir, "b.jpg"), nil)
	m.Set(filepath.Join(dir, "c.png"), []geometry.RectInt{{X: 7, Y: 8, Width: 9, Height: 10}})

	require.NoError(t, store.Save(m))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, m.Keys(), loaded.Keys())
	for _, key := range m.Keys() {
		assert.Equal(t, m.Get(key), loaded.Get(key), key)
	}

	// A second save of the loaded map is stable.
	require.NoError(t, store.Save(loaded))
	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, loaded.Keys(), again.Keys())
	for _, key := range loaded.Keys() {
		assert.Equal(t, loaded.Get(key), again.Get(key), key)
	}
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "boxes.pkl")
	require.NoError(t, store.Save(NewMap()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boxes.pkl", entries[0].Name())
}

func TestStoreLoadMissing(t *testing.T) {
	_, err := NewStore(t.TempDir(), "").Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "")
	require.NoError(t, os.WriteFile(store.Path(), []byte("garbage"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadPythonTuplesAndFloats(t *testing.T) {
	// pickle.dumps({'a.png': [(1.6, 2, 3, 4)]}, protocol=2) without memo opcodes.
	data := "\x80\x02}X\x05\x00\x00\x00a.png](G\x3f\xf9\x99\x99\x99\x99\x99\x9aK\x02K\x03K\x04tas."

	dir := t.TempDir()
	store := NewStore(dir, "")
	require.NoError(t, os.WriteFile(store.Path(), []byte(data), 0o644))

	m, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, m.Keys())
	assert.Equal(t, []geometry.RectInt{{X: 2, Y: 2, Width: 3, Height: 4}}, m.Get("a.png"))
}

func TestStoreLoadRejectsWrongShape(t *testing.T) {
	// pickle.dumps({'a.png': [[1, 2, 3]]}, protocol=2) without memo opcodes.
	data := "\x80\x02}X\x05\x00\x00\x00a.png\x5d\x5d(K\x01K\x02K\x03eas."

	dir := t.TempDir()
	store := NewStore(dir, "")
	require.NoError(t, os.WriteFile(store.Path(), []byte(data), 0o644))

	_, err := store.Load()
	assert.ErrorContains(t, err, "expected 4 values")
}
