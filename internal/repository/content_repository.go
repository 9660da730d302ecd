package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/openverse/campus-api/internal/models"
)

// ContentRepository manages persistence for content items in the
// authoritative storage tier.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// voted_users predates the voting log migration; COALESCE keeps older
// rows readable as an empty log.
const contentColumns = `id, subject_id, title, type, content, uploader_id, uploader_branch, created_at,
        upvotes, downvotes, is_verified, COALESCE(deadline_date, '') AS deadline_date,
        COALESCE(voted_users, '{}') AS voted_users, file_name, file_size, file_mime, file_ref`

// ListAll returns the full content collection ordered by creation time
// descending. The engine loads this once at startup.
func (r *ContentRepository) ListAll(ctx context.Context) ([]models.ContentItem, error) {
	query := fmt.Sprintf("SELECT %s FROM content_items ORDER BY created_at DESC", contentColumns)
	items := []models.ContentItem{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	return items, nil
}

// Upsert writes the full row for a new or mutated item.
func (r *ContentRepository) Upsert(ctx context.Context, item *models.ContentItem) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO content_items
        (id, subject_id, title, type, content, uploader_id, uploader_branch, created_at,
         upvotes, downvotes, is_verified, deadline_date, voted_users, file_name, file_size, file_mime, file_ref)
        VALUES (:id, :subject_id, :title, :type, :content, :uploader_id, :uploader_branch, :created_at,
         :upvotes, :downvotes, :is_verified, :deadline_date, :voted_users, :file_name, :file_size, :file_mime, :file_ref)
        ON CONFLICT (id) DO UPDATE SET
         upvotes = EXCLUDED.upvotes, downvotes = EXCLUDED.downvotes,
         is_verified = EXCLUDED.is_verified, voted_users = EXCLUDED.voted_users`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("upsert content item: %w", err)
	}
	return nil
}

// Delete removes a content item. Hard delete, no tombstone.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM content_items WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	return nil
}

// BulkInsert loads migrated legacy rows in one transaction.
func (r *ContentRepository) BulkInsert(ctx context.Context, items []models.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	const query = `INSERT INTO content_items
        (id, subject_id, title, type, content, uploader_id, uploader_branch, created_at,
         upvotes, downvotes, is_verified, deadline_date, voted_users, file_name, file_size, file_mime, file_ref)
        VALUES (:id, :subject_id, :title, :type, :content, :uploader_id, :uploader_branch, :created_at,
         :upvotes, :downvotes, :is_verified, :deadline_date, :voted_users, :file_name, :file_size, :file_mime, :file_ref)
        ON CONFLICT (id) DO NOTHING`
	for i := range items {
		if items[i].VotedUsers == nil {
			items[i].VotedUsers = pq.StringArray{}
		}
		if _, err := tx.NamedExecContext(ctx, query, &items[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk insert content item %s: %w", items[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// Count reports the number of stored items. Used to decide whether the
// legacy snapshot still needs migrating.
func (r *ContentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM content_items"); err != nil {
		return 0, fmt.Errorf("count content items: %w", err)
	}
	return total, nil
}
