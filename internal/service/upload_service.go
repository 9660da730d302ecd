package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type blobStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadService stores content attachments in the blob store. The
// returned metadata keeps the original filename for display while the
// ref points at an opaque stored name.
type UploadService struct {
	store  blobStore
	cfg    config.UploadsConfig
	logger *zap.Logger
}

// NewUploadService constructs the service.
func NewUploadService(store blobStore, cfg config.UploadsConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	return &UploadService{store: store, cfg: cfg, logger: logger}
}

// SaveUpload validates and persists a multipart attachment.
func (s *UploadService) SaveUpload(header *multipart.FileHeader) (*models.FileMetadata, error) {
	if header.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	mime := header.Header.Get("Content-Type")
	if !s.mimeAllowed(mime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload")
	}
	defer src.Close() //nolint:errcheck

	ref := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	if _, err := s.store.SaveStream(ref, src); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store attachment")
	}

	s.logger.Info("attachment stored",
		zap.String("ref", ref),
		zap.String("name", header.Filename),
		zap.Int64("size", header.Size))

	return &models.FileMetadata{
		Name: header.Filename,
		Size: header.Size,
		MIME: mime,
		Ref:  ref,
	}, nil
}

// Open returns a read handle for a stored attachment.
func (s *UploadService) Open(ref string) (*os.File, error) {
	file, err := s.store.Open(ref)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	return file, nil
}

// Remove deletes a stored attachment. Failures are logged; a dangling
// blob is preferable to failing the owning operation.
func (s *UploadService) Remove(ref string) {
	if ref == "" {
		return
	}
	if err := s.store.Delete(ref); err != nil {
		s.logger.Warn("attachment cleanup failed", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *UploadService) mimeAllowed(mime string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}
