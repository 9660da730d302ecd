package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/pkg/config"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

const extractionPrompt = "Extract the Subject Name, Assignment Title, and Deadline Date from this image of a blackboard or syllabus. " +
	"Return it as a clean JSON object with fields: subjectName, assignmentTitle, and deadlineDate. " +
	"The deadlineDate must be in YYYY-MM-DD format (e.g., 2024-12-31). If a field is not found, use 'Not found'."

const summaryPrompt = "You are an expert academic tutor. Read this PDF document thoroughly. " +
	"Generate a comprehensive, structured set of study notes. Include: 1. A Main Title. 2. Key Concepts with definitions. " +
	"3. Important Formulas or Bullet points. 4. A brief Summary at the end. Format the output as clean text suitable for a document."

// ExtractService calls the Gemini generateContent REST endpoint to pull
// structured fields out of syllabus photos and to summarise uploaded
// PDFs. Upstream failures surface as extraction errors; the caller can
// always fall back to manual entry.
type ExtractService struct {
	client *http.Client
	logger *zap.Logger
	cfg    config.ExtractConfig
}

// NewExtractService constructs the service.
func NewExtractService(client *http.Client, logger *zap.Logger, cfg config.ExtractConfig) *ExtractService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractService{client: client, logger: logger, cfg: cfg}
}

// Enabled reports whether the service is configured with an API key.
func (s *ExtractService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.cfg.APIKey != ""
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *inlineDataPart `json:"inline_data,omitempty"`
}

type inlineDataPart struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractFromImage pulls subject, title and deadline out of a base64
// encoded image.
func (s *ExtractService) ExtractFromImage(ctx context.Context, base64Image, mimeType string) (*dto.ExtractionResult, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	text, err := s.generate(ctx, generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{InlineData: &inlineDataPart{MIMEType: mimeType, Data: base64Image}},
				{Text: extractionPrompt},
			},
		}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, err
	}

	var result dto.ExtractionResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "extraction response was not valid JSON")
	}
	return &result, nil
}

// SummarizePDF generates structured study notes from a base64 encoded
// PDF document.
func (s *ExtractService) SummarizePDF(ctx context.Context, base64PDF string) (*dto.SummaryResult, error) {
	text, err := s.generate(ctx, generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{InlineData: &inlineDataPart{MIMEType: "application/pdf", Data: base64PDF}},
				{Text: summaryPrompt},
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	return &dto.SummaryResult{Notes: text}, nil
}

func (s *ExtractService) generate(ctx context.Context, payload generateRequest) (string, error) {
	if !s.Enabled() {
		return "", appErrors.Clone(appErrors.ErrExtraction, "extraction service is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to encode extraction request")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.Model, s.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "extraction request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to read extraction response")
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("extraction upstream error", zap.Int("status", resp.StatusCode))
		return "", appErrors.Clone(appErrors.ErrExtraction, fmt.Sprintf("extraction upstream returned status %d", resp.StatusCode))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExtraction.Code, appErrors.ErrExtraction.Status, "failed to decode extraction response")
	}
	if parsed.Error != nil {
		return "", appErrors.Clone(appErrors.ErrExtraction, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", appErrors.Clone(appErrors.ErrExtraction, "extraction returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
