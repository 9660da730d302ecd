package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/models"
)

func TestLegacySnapshotRoundTrip(t *testing.T) {
	repo, err := NewLegacySnapshotRepository(t.TempDir(), "snapshot.json")
	require.NoError(t, err)

	items := []models.ContentItem{
		{ID: "item-1", SubjectID: "cs101", Title: "Sockets recap", Type: models.ContentNote, Timestamp: time.Now().UTC(), VotedUsers: []string{"21BCE100"}},
	}
	require.NoError(t, repo.Save(items))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "item-1", loaded[0].ID)
	assert.Equal(t, []string{"21BCE100"}, []string(loaded[0].VotedUsers))
}

func TestLegacySnapshotMissingFile(t *testing.T) {
	repo, err := NewLegacySnapshotRepository(t.TempDir(), "missing.json")
	require.NoError(t, err)

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLegacySnapshotBareArray(t *testing.T) {
	dir := t.TempDir()
	// The oldest scheme wrote a bare array without checksum or vote log.
	raw, err := json.Marshal([]map[string]interface{}{
		{"id": "old-1", "subject_id": "cs101", "title": "Old notes", "type": "note"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot.json"), raw, 0o644))

	repo, err := NewLegacySnapshotRepository(dir, "snapshot.json")
	require.NoError(t, err)

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "old-1", loaded[0].ID)
	assert.NotNil(t, loaded[0].VotedUsers)
	assert.Empty(t, loaded[0].VotedUsers)
}

func TestLegacySnapshotChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewLegacySnapshotRepository(dir, "snapshot.json")
	require.NoError(t, err)
	require.NoError(t, repo.Save([]models.ContentItem{{ID: "item-1"}}))

	raw, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	envelope["checksum"] = json.RawMessage(`"deadbeef"`)
	tampered, err := json.Marshal(envelope)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.Path(), tampered, 0o644))

	_, err = repo.Load()
	assert.Error(t, err)
}
