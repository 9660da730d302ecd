package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type primaryStub struct {
	items     []models.ContentItem
	upserts   []models.ContentItem
	deletes   []string
	bulk      []models.ContentItem
	countErr  error
	upsertErr error
}

func (s *primaryStub) ListAll(ctx context.Context) ([]models.ContentItem, error) {
	return s.items, nil
}

func (s *primaryStub) Upsert(ctx context.Context, item *models.ContentItem) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, *item)
	return nil
}

func (s *primaryStub) Delete(ctx context.Context, id string) error {
	s.deletes = append(s.deletes, id)
	return nil
}

func (s *primaryStub) BulkInsert(ctx context.Context, items []models.ContentItem) error {
	s.bulk = append(s.bulk, items...)
	s.items = append(s.items, items...)
	return nil
}

func (s *primaryStub) Count(ctx context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.items), nil
}

type legacyStub struct {
	items   []models.ContentItem
	saved   [][]models.ContentItem
	loadErr error
	saveErr error
}

func (s *legacyStub) Load() ([]models.ContentItem, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.items, nil
}

func (s *legacyStub) Save(items []models.ContentItem) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, items)
	return nil
}

func (s *legacyStub) Path() string { return "/tmp/snapshot.json" }

func TestLoadMigratesLegacySnapshot(t *testing.T) {
	legacy := &legacyStub{items: []models.ContentItem{{ID: "old-1"}, {ID: "old-2"}}}
	primary := &primaryStub{}
	s := New(primary, legacy, nil)

	items, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Len(t, primary.bulk, 2)
}

func TestLoadSkipsMigrationWhenPrimaryPopulated(t *testing.T) {
	legacy := &legacyStub{items: []models.ContentItem{{ID: "old-1"}}}
	primary := &primaryStub{items: []models.ContentItem{{ID: "new-1"}}}
	s := New(primary, legacy, nil)

	items, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new-1", items[0].ID)
	assert.Empty(t, primary.bulk)
}

func TestLoadToleratesUnreadableLegacy(t *testing.T) {
	legacy := &legacyStub{loadErr: errors.New("corrupt")}
	primary := &primaryStub{}
	s := New(primary, legacy, nil)

	items, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpsertFailurePropagatesStorageError(t *testing.T) {
	primary := &primaryStub{upsertErr: errors.New("disk full")}
	legacy := &legacyStub{}
	s := New(primary, legacy, nil)

	err := s.UpsertItem(context.Background(), &models.ContentItem{ID: "item-1"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
	// The mirror must not run when the authoritative write failed.
	assert.Empty(t, legacy.saved)
}

func TestLegacyMirrorFailureIsSwallowed(t *testing.T) {
	primary := &primaryStub{}
	legacy := &legacyStub{saveErr: errors.New("read-only fs")}
	s := New(primary, legacy, nil)

	err := s.UpsertItem(context.Background(), &models.ContentItem{ID: "item-1"}, []models.ContentItem{{ID: "item-1"}})
	assert.NoError(t, err)
	assert.Len(t, primary.upserts, 1)
}

func TestDeleteMirrorsSnapshot(t *testing.T) {
	primary := &primaryStub{}
	legacy := &legacyStub{}
	s := New(primary, legacy, nil)

	require.NoError(t, s.DeleteItem(context.Background(), "item-1", []models.ContentItem{}))
	assert.Equal(t, []string{"item-1"}, primary.deletes)
	require.Len(t, legacy.saved, 1)
	assert.Empty(t, legacy.saved[0])
}
