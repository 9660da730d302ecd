package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type primaryTier interface {
	ListAll(ctx context.Context) ([]models.ContentItem, error)
	Upsert(ctx context.Context, item *models.ContentItem) error
	Delete(ctx context.Context, id string) error
	BulkInsert(ctx context.Context, items []models.ContentItem) error
	Count(ctx context.Context) (int, error)
}

type legacyTier interface {
	Load() ([]models.ContentItem, error)
	Save(items []models.ContentItem) error
	Path() string
}

// Store is the durable persistence boundary for the content collection.
// The primary tier is authoritative: a failed primary write aborts the
// operation. The legacy tier is a redundant mirror kept for deployments
// migrating off the old snapshot scheme; its failures are logged only.
type Store struct {
	primary primaryTier
	legacy  legacyTier
	logger  *zap.Logger
}

// New constructs a Store. The legacy tier may be nil when the mirror is
// disabled.
func New(primary primaryTier, legacy legacyTier, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{primary: primary, legacy: legacy, logger: logger}
}

// Load reads the collection from the primary tier. When the primary
// tier holds no rows but the legacy snapshot does, the snapshot is
// migrated into the primary tier first so no data is lost.
func (s *Store) Load(ctx context.Context) ([]models.ContentItem, error) {
	count, err := s.primary.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read content store")
	}

	if count == 0 && s.legacy != nil {
		migrated, err := s.legacy.Load()
		if err != nil {
			s.logger.Warn("legacy snapshot unreadable, starting empty", zap.String("path", s.legacy.Path()), zap.Error(err))
		} else if len(migrated) > 0 {
			if err := s.primary.BulkInsert(ctx, migrated); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to migrate legacy snapshot")
			}
			s.logger.Info("migrated legacy snapshot", zap.String("path", s.legacy.Path()), zap.Int("items", len(migrated)))
		}
	}

	items, err := s.primary.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read content store")
	}
	return items, nil
}

// UpsertItem durably writes one item and mirrors the full post-mutation
// collection into the legacy tier.
func (s *Store) UpsertItem(ctx context.Context, item *models.ContentItem, snapshot []models.ContentItem) error {
	if err := s.primary.Upsert(ctx, item); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist content item")
	}
	s.mirror(snapshot)
	return nil
}

// DeleteItem durably removes one item and mirrors the post-mutation
// collection.
func (s *Store) DeleteItem(ctx context.Context, id string, snapshot []models.ContentItem) error {
	if err := s.primary.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete content item")
	}
	s.mirror(snapshot)
	return nil
}

func (s *Store) mirror(snapshot []models.ContentItem) {
	if s.legacy == nil {
		return
	}
	if err := s.legacy.Save(snapshot); err != nil {
		s.logger.Warn("legacy snapshot mirror failed", zap.String("path", s.legacy.Path()), zap.Error(err))
	}
}
