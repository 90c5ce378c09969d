package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"AppMovin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexRepository_MissingFileIsEmpty(t *testing.T) {
	repo := NewIndexRepository(filepath.Join(t.TempDir(), "db.json"))

	apps := repo.Load()
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestIndexRepository_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, NewIndexRepository(path).Load())
}

func TestIndexRepository_SavePreservesOrder(t *testing.T) {
	repo := NewIndexRepository(filepath.Join(t.TempDir(), "nested", "db.json"))
	apps := []models.AppRecord{
		{ID: "b", Name: "Second", Filename: "b-x.pkg", UploadedAt: 2},
		{ID: "a", Name: "First", Filename: "a-y.pkg", UploadedAt: 1},
	}
	require.NoError(t, repo.Save(apps))

	assert.Equal(t, apps, repo.Load())

	found, ok := repo.Find("a")
	require.True(t, ok)
	assert.Equal(t, "First", found.Name)

	_, ok = repo.Find("missing")
	assert.False(t, ok)
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	repo := NewSettingsRepository(filepath.Join(t.TempDir(), "config.json"))
	assert.Empty(t, repo.Load().StoragePath)

	require.NoError(t, repo.Save(models.StorageConfig{StoragePath: "/srv/apps"}))
	assert.Equal(t, "/srv/apps", repo.Load().StoragePath)
}
