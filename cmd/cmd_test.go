package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"AppMovin/models"
	"AppMovin/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	for _, key := range []string{"APPMOVIN_CONFIG", "STORAGE_TYPE", "AUTH_TIMEOUT", "AUDIT_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput = false
	uploadName, uploadVersion, uploadDescription, uploadIcon = "", "", "", ""
	moveExisting = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_AppLifecycle(t *testing.T) {
	setupCLI(t)
	src := filepath.Join(t.TempDir(), "demo.pkg")
	require.NoError(t, os.WriteFile(src, make([]byte, 512), 0o644))

	out, err := execute(t, "upload", src, "--name", "Demo", "--version", "2.0.0", "--json")
	require.NoError(t, err, out)
	var record models.AppRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "Demo", record.Name)
	assert.Equal(t, "2.0.0", record.Version)
	assert.Equal(t, int64(512), record.Size)

	out, err = execute(t, "list", "--json")
	require.NoError(t, err)
	var apps []models.AppRecord
	require.NoError(t, json.Unmarshal([]byte(out), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, record.ID, apps[0].ID)

	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo")
	assert.Contains(t, out, "Total: 1 app(s)")

	out, err = execute(t, "url", record.ID)
	require.NoError(t, err)
	assert.FileExists(t, strings.TrimSpace(out))

	_, err = execute(t, "delete", record.ID)
	require.NoError(t, err)

	_, err = execute(t, "url", record.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCLI_PathSetMoves(t *testing.T) {
	dataDir := setupCLI(t)
	src := filepath.Join(t.TempDir(), "demo.pkg")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	_, err := execute(t, "upload", src)
	require.NoError(t, err)

	newDir := filepath.Join(t.TempDir(), "library")
	out, err := execute(t, "path", "set", newDir, "--move")
	require.NoError(t, err, out)

	out, err = execute(t, "path")
	require.NoError(t, err)
	assert.Equal(t, newDir, strings.TrimSpace(out))

	entries, err := os.ReadDir(newDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.FileExists(t, filepath.Join(dataDir, "db.json"))
}

func TestCLI_Check(t *testing.T) {
	setupCLI(t)
	src := filepath.Join(t.TempDir(), "demo.pkg")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	out, err := execute(t, "upload", src, "--json")
	require.NoError(t, err)
	var record models.AppRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))

	out, err = execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No drift found")

	out, err = execute(t, "path")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(strings.TrimSpace(out), record.Filename)))

	out, err = execute(t, "check", "--json")
	require.NoError(t, err)
	var report storage.AuditReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{record.ID}, report.Missing)
}

func TestCLI_Version(t *testing.T) {
	setupCLI(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version, strings.TrimSpace(out))
}
