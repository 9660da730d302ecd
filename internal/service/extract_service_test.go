package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

func extractFixture(t *testing.T, handler http.HandlerFunc) *ExtractService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewExtractService(server.Client(), zap.NewNop(), config.ExtractConfig{
		Enabled: true,
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		Timeout: 5 * time.Second,
	})
}

func candidateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{{
			"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			},
		}},
	}
}

func TestExtractFromImageParsesStructuredFields(t *testing.T) {
	var gotPath string
	svc := extractFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "contents")
		_ = json.NewEncoder(w).Encode(candidateResponse(
			`{"subjectName":"Operating Systems","assignmentTitle":"Scheduler lab","deadlineDate":"2026-09-20"}`))
	})

	result, err := svc.ExtractFromImage(context.Background(), "aGVsbG8=", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "Operating Systems", result.SubjectName)
	assert.Equal(t, "Scheduler lab", result.AssignmentTitle)
	assert.Equal(t, "2026-09-20", result.DeadlineDate)
}

func TestExtractFromImageMalformedJSON(t *testing.T) {
	svc := extractFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse("sorry, cannot read the board"))
	})

	_, err := svc.ExtractFromImage(context.Background(), "aGVsbG8=", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}

func TestExtractUpstreamFailure(t *testing.T) {
	svc := extractFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.ExtractFromImage(context.Background(), "aGVsbG8=", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}

func TestExtractNoCandidates(t *testing.T) {
	svc := extractFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	})

	_, err := svc.ExtractFromImage(context.Background(), "aGVsbG8=", "")
	require.Error(t, err)
}

func TestSummarizePDFReturnsText(t *testing.T) {
	svc := extractFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse("Title\nKey concepts follow."))
	})

	result, err := svc.SummarizePDF(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Contains(t, result.Notes, "Key concepts")
}

func TestExtractDisabledWithoutKey(t *testing.T) {
	svc := NewExtractService(nil, zap.NewNop(), config.ExtractConfig{Enabled: true})

	assert.False(t, svc.Enabled())
	_, err := svc.ExtractFromImage(context.Background(), "aGVsbG8=", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExtraction.Code, appErrors.FromError(err).Code)
}
