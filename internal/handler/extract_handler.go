package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/service"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

// ExtractHandler exposes AI-assisted extraction endpoints.
type ExtractHandler struct {
	extract *service.ExtractService
}

// NewExtractHandler constructs the handler.
func NewExtractHandler(extract *service.ExtractService) *ExtractHandler {
	return &ExtractHandler{extract: extract}
}

// ExtractImage godoc
// @Summary Extract assignment fields from an image
// @Tags Extraction
// @Accept json
// @Produce json
// @Param payload body dto.ExtractImageRequest true "Base64 image"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /extract [post]
func (h *ExtractHandler) ExtractImage(c *gin.Context) {
	if !h.extract.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrExtraction, "extraction is not configured"))
		return
	}
	var req dto.ExtractImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.extract.ExtractFromImage(c.Request.Context(), req.Image, req.MimeType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Summarize godoc
// @Summary Generate study notes from a PDF
// @Tags Extraction
// @Accept json
// @Produce json
// @Param payload body dto.SummarizeRequest true "Base64 PDF"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /summarize [post]
func (h *ExtractHandler) Summarize(c *gin.Context) {
	if !h.extract.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrExtraction, "extraction is not configured"))
		return
	}
	var req dto.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.extract.SummarizePDF(c.Request.Context(), req.Document)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
