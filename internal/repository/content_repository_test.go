package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/internal/models"
)

func newContentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestContentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newContentMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "title", "type", "content", "uploader_id", "uploader_branch", "created_at", "upvotes", "downvotes", "is_verified", "deadline_date", "voted_users", "file_name", "file_size", "file_mime", "file_ref"}).
		AddRow("item-1", "cs101", "Sockets recap", "note", "notes text", "21BCE100", "CSE", time.Now(), 4, 1, false, "", pq.StringArray{"21BCE101"}, nil, nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM content_items ORDER BY created_at DESC").
		WillReturnRows(rows)

	items, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item-1", items[0].ID)
	assert.Equal(t, 4, items[0].Upvotes)
	assert.Equal(t, []string{"21BCE101"}, []string(items[0].VotedUsers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newContentMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec("INSERT INTO content_items").
		WillReturnResult(sqlmock.NewResult(0, 1))

	item := &models.ContentItem{
		ID:             "item-1",
		SubjectID:      "cs101",
		Title:          "Sockets recap",
		Type:           models.ContentNote,
		UploaderID:     "21BCE100",
		UploaderBranch: "CSE",
		VotedUsers:     pq.StringArray{},
	}
	require.NoError(t, repo.Upsert(context.Background(), item))
	assert.False(t, item.Timestamp.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newContentMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM content_items WHERE id = $1")).
		WithArgs("item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "item-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newContentMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO content_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	items := []models.ContentItem{
		{ID: "item-1", Timestamp: time.Now()},
		{ID: "item-2", Timestamp: time.Now()},
	}
	require.NoError(t, repo.BulkInsert(context.Background(), items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newContentMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM content_items")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
