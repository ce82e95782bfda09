package origin

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftarr/siftarr/internal/models"
	"github.com/siftarr/siftarr/internal/store"
)

func testOrigin(id string, priority int) models.OriginCandidate {
	return models.OriginCandidate{
		ID:         id,
		Name:       "Origin " + id,
		BaseURL:    "https://" + id + ".example.com",
		SearchPath: "/api/search",
		DetailPath: "/api/detail/",
		Priority:   priority,
	}
}

func TestRegistrySeedAndOrdering(t *testing.T) {
	seed := []models.OriginCandidate{
		testOrigin("beta", 5),
		testOrigin("alpha", 10),
		testOrigin("gamma", 5),
	}

	r, err := NewRegistry(seed, nil, slog.Default())
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].ID)
	assert.Equal(t, "beta", all[1].ID)
	assert.Equal(t, "gamma", all[2].ID)
}

func TestRegistrySeedValidation(t *testing.T) {
	seed := []models.OriginCandidate{{ID: "bad", Name: "Bad", BaseURL: "not-a-url"}}
	_, err := NewRegistry(seed, nil, slog.Default())
	require.Error(t, err)
}

func TestRegistryEnabledFiltersDisabled(t *testing.T) {
	disabled := testOrigin("off", 1)
	disabled.Enabled = models.BoolPtr(false)

	r, err := NewRegistry([]models.OriginCandidate{testOrigin("on", 1), disabled}, nil, slog.Default())
	require.NoError(t, err)

	enabled := r.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "on", enabled[0].ID)
}

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry([]models.OriginCandidate{testOrigin("a", 1)}, nil, slog.Default())
	require.NoError(t, err)

	o, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Origin a", o.Name)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrOriginNotFound)
}

func TestRegistryUpsertPersists(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	r, err := NewRegistry(nil, st, slog.Default())
	require.NoError(t, err)
	require.NoError(t, r.Upsert(testOrigin("new", 3)))

	// A fresh registry over the same store sees the persisted origin.
	r2, err := NewRegistry(nil, st, slog.Default())
	require.NoError(t, err)

	o, err := r2.Get("new")
	require.NoError(t, err)
	assert.Equal(t, 3, o.Priority)
}

func TestRegistryOverridesWinOverSeed(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	edited := testOrigin("a", 99)
	require.NoError(t, st.SetJSON(storeKeyPrefix+"a", edited))

	r, err := NewRegistry([]models.OriginCandidate{testOrigin("a", 1)}, st, slog.Default())
	require.NoError(t, err)

	o, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 99, o.Priority)
}

func TestRegistryRemove(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	r, err := NewRegistry([]models.OriginCandidate{testOrigin("a", 1)}, st, slog.Default())
	require.NoError(t, err)

	require.NoError(t, r.Remove("a"))
	_, err = r.Get("a")
	assert.ErrorIs(t, err, ErrOriginNotFound)

	err = r.Remove("a")
	assert.ErrorIs(t, err, ErrOriginNotFound)
}
