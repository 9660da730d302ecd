package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/export"
	"github.com/openverse/campus-api/pkg/storage"
)

type feedSource interface {
	Feed(filter models.FeedFilter) []models.ContentItem
}

type rankingSource interface {
	Leaderboard(ctx context.Context, branch string, limit int) ([]models.User, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService builds digest datasets and persists rendered files
// behind signed download tokens.
type ExportService struct {
	feed    feedSource
	ranking rankingSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(feed feedSource, ranking rankingSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		feed:    feed,
		ranking: ranking,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/reports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := job.Params.SubjectID
	if scope == "" {
		scope = job.Params.Branch
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(scope), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeVerifiedDigest:
		return s.buildVerifiedDigest(job.Params), "Verified Content Digest", nil
	case models.ReportTypeDeadlines:
		return s.buildDeadlineDigest(job.Params), "Upcoming Deadlines", nil
	case models.ReportTypeLeaderboard:
		dataset, err := s.buildLeaderboard(ctx, job.Params)
		return dataset, "Karma Leaderboard", err
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildVerifiedDigest(params models.ReportJobParams) export.Dataset {
	items := s.feed.Feed(models.FeedFilter{
		SubjectID:    params.SubjectID,
		Branch:       params.Branch,
		VerifiedOnly: true,
	})
	headers := []string{"Subject", "Title", "Type", "Uploader", "Branch", "Upvotes", "Downvotes", "Submitted"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Subject":   item.SubjectID,
			"Title":     item.Title,
			"Type":      string(item.Type),
			"Uploader":  item.UploaderID,
			"Branch":    item.UploaderBranch,
			"Upvotes":   strconv.Itoa(item.Upvotes),
			"Downvotes": strconv.Itoa(item.Downvotes),
			"Submitted": item.Timestamp.UTC().Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ExportService) buildDeadlineDigest(params models.ReportJobParams) export.Dataset {
	items := s.feed.Feed(models.FeedFilter{
		SubjectID:    params.SubjectID,
		Branch:       params.Branch,
		UpcomingOnly: true,
	})
	headers := []string{"Subject", "Title", "Type", "Deadline", "Uploader", "Branch", "Verified"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Subject":  item.SubjectID,
			"Title":    item.Title,
			"Type":     string(item.Type),
			"Deadline": item.DeadlineDate,
			"Uploader": item.UploaderID,
			"Branch":   item.UploaderBranch,
			"Verified": strconv.FormatBool(item.IsVerified),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ExportService) buildLeaderboard(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	users, err := s.ranking.Leaderboard(ctx, params.Branch, 100)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load leaderboard: %w", err)
	}
	headers := []string{"Rank", "Enrollment ID", "Branch", "Karma", "Level", "XP"}
	rows := make([]map[string]string, 0, len(users))
	for i, user := range users {
		rows = append(rows, map[string]string{
			"Rank":          strconv.Itoa(i + 1),
			"Enrollment ID": user.EnrollmentID,
			"Branch":        user.Branch,
			"Karma":         strconv.Itoa(user.KarmaPoints),
			"Level":         strconv.Itoa(user.Level),
			"XP":            strconv.Itoa(user.XP),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, nil
}
