package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkfinder/pkg/config"
	"parkfinder/pkg/models"
	"parkfinder/pkg/utils"
)

func newTestCache(t *testing.T) *ResourceCache {
	t.Helper()
	store := NewJSONFileStore(filepath.Join(t.TempDir(), "nps_cache.json"), testLogger())
	return NewResourceCache(store, testLogger())
}

func TestResourceCache_Pages(t *testing.T) {
	cache := newTestCache(t)

	_, found, err := cache.GetPage("https://www.nps.gov/")
	require.NoError(t, err)
	assert.False(t, found)

	html := "<html><body>\"quoted\" & <b>bold</b></body></html>"
	require.NoError(t, cache.PutPage("https://www.nps.gov/", html))

	got, found, err := cache.GetPage("https://www.nps.gov/")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, html, got)
}

func TestResourceCache_Proximity(t *testing.T) {
	cache := newTestCache(t)

	resp := models.ProximityResponse{
		SearchResults: []models.ProximityEntry{
			{Name: "Cafe", Fields: models.ProximityFields{GroupSICCodeNameExt: "Restaurants", Address: "1 Main St", City: "Houghton"}},
		},
	}
	require.NoError(t, cache.PutProximity("49931", resp))

	var got models.ProximityResponse
	found, err := cache.GetProximity("49931", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, resp, got)

	found, err = cache.GetProximity("00000", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResourceCache_NamespacesDisjoint(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.PutPage("49931", "<html></html>"))

	var resp models.ProximityResponse
	found, err := cache.GetProximity("49931", &resp)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.PutProximity("49931", models.ProximityResponse{}))
	assert.Equal(t, 2, cache.Len())

	page, found, err := cache.GetPage("49931")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<html></html>", page)
}

func TestResourceCache_GetPageWrongType(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.PutProximity("x", models.ProximityResponse{}))
	// Same resource key under the page namespace holds an object, not a string
	require.NoError(t, cache.Store().Put(pageKeyPrefix+"x", []byte(`{"a":1}`)))

	_, _, err := cache.GetPage("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrParsing)
}

func TestResourceCache_ListKeysAndKeyLog(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.PutPage("https://www.nps.gov/state/mi/index.htm", "<html></html>"))
	require.NoError(t, cache.PutProximity("49931", models.ProximityResponse{}))

	keys, err := cache.ListKeys()
	require.NoError(t, err)
	assert.Equal(t, []CacheKey{
		{Namespace: "geo", Key: "49931"},
		{Namespace: "page", Key: "https://www.nps.gov/state/mi/index.htm"},
	}, keys)

	t.Run("key log strips prefixes", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "keys.log")
		require.NoError(t, cache.WriteKeyLog(outPath))

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Equal(t, "49931\nhttps://www.nps.gov/state/mi/index.htm\n", string(data))
	})

	t.Run("invalid path returns error", func(t *testing.T) {
		err := cache.WriteKeyLog(filepath.Join(t.TempDir(), "missing", "keys.log"))
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrFilesystem)
	})
}

func TestOpen(t *testing.T) {
	t.Run("json backend", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.AppConfig{BaseURL: "https://www.nps.gov", StateDir: dir, CacheBackend: config.CacheBackendJSON}
		cache, err := Open(cfg, testLogger())
		require.NoError(t, err)
		defer cache.Close()

		require.NoError(t, cache.PutPage("https://www.nps.gov/", "x"))
		_, err = os.Stat(filepath.Join(dir, config.DefaultCacheFile))
		assert.NoError(t, err)
	})

	t.Run("badger backend", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.AppConfig{BaseURL: "https://www.nps.gov", StateDir: dir, CacheBackend: config.CacheBackendBadger}
		cache, err := Open(cfg, testLogger())
		require.NoError(t, err)
		defer cache.Close()

		_, ok := cache.Store().(*BadgerStore)
		assert.True(t, ok)
		_, err = os.Stat(filepath.Join(dir, "www.nps.gov_cache_db"))
		assert.NoError(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(config.AppConfig{StateDir: t.TempDir(), CacheBackend: "redis"}, testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrConfigValidation)
	})
}
