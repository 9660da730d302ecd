package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/export"
	"github.com/openverse/campus-api/pkg/storage"
)

type feedStub struct {
	items []models.ContentItem
}

func (f feedStub) Feed(filter models.FeedFilter) []models.ContentItem {
	out := []models.ContentItem{}
	for _, item := range f.items {
		if filter.SubjectID != "" && item.SubjectID != filter.SubjectID {
			continue
		}
		if filter.VerifiedOnly && !item.IsVerified {
			continue
		}
		if filter.UpcomingOnly && item.DeadlineDate == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

type rankingStub struct {
	users []models.User
}

func (r rankingStub) Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error) {
	return r.users, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	feed := feedStub{items: []models.ContentItem{
		{
			ID:             "c1",
			SubjectID:      "sub-1",
			Title:          "Unit 3 notes",
			Type:           models.ContentNote,
			UploaderID:     "2023BTCS001",
			UploaderBranch: "Computer Science",
			Timestamp:      time.Now(),
			Upvotes:        6,
			IsVerified:     true,
		},
		{
			ID:           "c2",
			SubjectID:    "sub-1",
			Title:        "Assignment 2",
			Type:         models.ContentDeadline,
			UploaderID:   "2023BTCS002",
			DeadlineDate: "2099-01-01",
		},
	}}
	ranking := rankingStub{users: []models.User{
		{EnrollmentID: "2023BTCS001", Branch: "Computer Science", KarmaPoints: 40, Level: 2, XP: 120},
	}}
	svc := NewExportService(feed, ranking, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeVerifiedDigest,
		Params:    models.ReportJobParams{SubjectID: "sub-1", Format: models.ReportFormatCSV},
		CreatedBy: "ADMIN",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/reports/download/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-2",
		Type:      models.ReportTypeLeaderboard,
		Params:    models.ReportJobParams{Format: models.ReportFormatPDF},
		CreatedBy: "ADMIN",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ReportFormatPDF, result.Format)

	path := filepath.Clean(store.Path(result.RelativePath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateDeadlineDigest(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-3",
		Type:      models.ReportTypeDeadlines,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		CreatedBy: "ADMIN",
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestExportServiceUnsupportedType(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportType("homework"),
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
