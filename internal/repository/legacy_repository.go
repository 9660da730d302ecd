package repository

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/openverse/campus-api/internal/models"
)

// LegacySnapshotRepository mirrors the full content collection into the
// pre-migration JSON snapshot file. The rich tier is authoritative; this
// tier exists so older deployments can be migrated without data loss and
// keeps receiving redundant writes afterwards.
type LegacySnapshotRepository struct {
	path string
}

// snapshotEnvelope wraps the collection with an integrity checksum.
// Files written by the oldest scheme are a bare JSON array; Load accepts
// both shapes.
type snapshotEnvelope struct {
	Checksum string               `json:"checksum"`
	Items    []models.ContentItem `json:"items"`
}

// NewLegacySnapshotRepository ensures the snapshot directory exists.
func NewLegacySnapshotRepository(dir, filename string) (*LegacySnapshotRepository, error) {
	if dir == "" {
		dir = "./data"
	}
	if filename == "" {
		filename = "content_snapshot.json"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &LegacySnapshotRepository{path: filepath.Join(dir, filename)}, nil
}

// Load reads the snapshot, returning an empty collection when the file
// does not exist yet. Items missing a vote log get an empty one.
func (r *LegacySnapshotRepository) Load() ([]models.ContentItem, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ContentItem{}, nil
		}
		return nil, fmt.Errorf("read legacy snapshot: %w", err)
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Checksum != "" {
		if sum := checksum(envelope.Items); sum != envelope.Checksum {
			return nil, fmt.Errorf("legacy snapshot checksum mismatch: have %s want %s", sum, envelope.Checksum)
		}
		return normalise(envelope.Items), nil
	}

	// Bare-array shape written by the oldest storage scheme.
	var items []models.ContentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse legacy snapshot: %w", err)
	}
	return normalise(items), nil
}

// Save atomically replaces the snapshot with the given collection.
func (r *LegacySnapshotRepository) Save(items []models.ContentItem) error {
	envelope := snapshotEnvelope{Checksum: checksum(items), Items: items}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal legacy snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write legacy snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace legacy snapshot: %w", err)
	}
	return nil
}

// Path exposes the snapshot location for logging.
func (r *LegacySnapshotRepository) Path() string {
	return r.path
}

func checksum(items []models.ContentItem) string {
	raw, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func normalise(items []models.ContentItem) []models.ContentItem {
	for i := range items {
		if items[i].VotedUsers == nil {
			items[i].VotedUsers = []string{}
		}
	}
	return items
}
