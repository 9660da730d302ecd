package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/service"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

// SubjectHandler exposes the subject catalogue endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
	engine   *service.EngineService
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(subjects *service.SubjectService, engine *service.EngineService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, engine: engine}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Get godoc
// @Summary Get a subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Directory godoc
// @Summary List a subject's content in chronological order
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/directory [get]
func (h *SubjectHandler) Directory(c *gin.Context) {
	items := h.engine.Directory(c.Param("id"))
	response.JSON(c, http.StatusOK, dto.NewContentResponses(items), nil)
}

// Create godoc
// @Summary Register a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Delete godoc
// @Summary Delete a subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
