package service

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/storage"
)

func multipartHeader(t *testing.T, filename, mime string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="` + filename + `"`},
		"Content-Type":        {mime},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/content", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func newUploadServiceForTest(t *testing.T, cfg config.UploadsConfig) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewUploadService(store, cfg, nil)
}

func TestUploadServiceRoundTrip(t *testing.T) {
	svc := newUploadServiceForTest(t, config.UploadsConfig{})
	header := multipartHeader(t, "syllabus.pdf", "application/pdf", []byte("%PDF-1.4 test"))

	meta, err := svc.SaveUpload(header)
	require.NoError(t, err)
	assert.Equal(t, "syllabus.pdf", meta.Name)
	assert.Equal(t, "application/pdf", meta.MIME)
	assert.NotEmpty(t, meta.Ref)
	assert.NotEqual(t, "syllabus.pdf", meta.Ref)

	file, err := svc.Open(meta.Ref)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), data)
}

func TestUploadServiceRejectsOversizedFile(t *testing.T) {
	svc := newUploadServiceForTest(t, config.UploadsConfig{MaxFileSizeBytes: 4})
	header := multipartHeader(t, "big.bin", "application/octet-stream", []byte("way too large"))

	_, err := svc.SaveUpload(header)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadServiceRejectsDisallowedMIME(t *testing.T) {
	svc := newUploadServiceForTest(t, config.UploadsConfig{AllowedMIMEs: []string{"image/png", "application/pdf"}})
	header := multipartHeader(t, "script.sh", "text/x-shellscript", []byte("#!/bin/sh"))

	_, err := svc.SaveUpload(header)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadServiceOpenMissingRef(t *testing.T) {
	svc := newUploadServiceForTest(t, config.UploadsConfig{})
	_, err := svc.Open("nope.bin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUploadServiceRemoveIsIdempotent(t *testing.T) {
	svc := newUploadServiceForTest(t, config.UploadsConfig{})
	header := multipartHeader(t, "note.txt", "text/plain", []byte("hello"))

	meta, err := svc.SaveUpload(header)
	require.NoError(t, err)

	svc.Remove(meta.Ref)
	svc.Remove(meta.Ref)

	_, err = svc.Open(meta.Ref)
	assert.Error(t, err)
}
