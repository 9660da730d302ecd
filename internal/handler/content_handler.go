package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/bus"
	"github.com/openverse/campus-api/internal/dto"
	"github.com/openverse/campus-api/internal/models"
	"github.com/openverse/campus-api/internal/service"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

// ContentHandler exposes the content lifecycle endpoints.
type ContentHandler struct {
	engine   *service.EngineService
	calendar *service.CalendarService
	uploads  *service.UploadService
	stream   *bus.ContentBus
}

// NewContentHandler constructs the handler. uploads may be nil when
// attachment storage is not configured.
func NewContentHandler(engine *service.EngineService, calendar *service.CalendarService, uploads *service.UploadService, stream *bus.ContentBus) *ContentHandler {
	return &ContentHandler{engine: engine, calendar: calendar, uploads: uploads, stream: stream}
}

// Feed godoc
// @Summary List content items
// @Tags Content
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param branch query string false "Filter by uploader branch"
// @Param type query string false "Filter by content type"
// @Param verified query bool false "Only verified items"
// @Param upcoming query bool false "Only items with upcoming deadlines"
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *ContentHandler) Feed(c *gin.Context) {
	filter := models.FeedFilter{
		SubjectID:    c.Query("subjectId"),
		Branch:       c.Query("branch"),
		Type:         models.ContentType(c.Query("type")),
		VerifiedOnly: c.Query("verified") == "true",
		UpcomingOnly: c.Query("upcoming") == "true",
	}
	items := h.engine.Feed(filter)
	response.JSON(c, http.StatusOK, dto.NewContentResponses(items), nil)
}

// Get godoc
// @Summary Get a single content item
// @Tags Content
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	item, ok := h.engine.Item(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "content item not found"))
		return
	}
	response.JSON(c, http.StatusOK, dto.NewContentResponse(item), nil)
}

// Create godoc
// @Summary Submit a content item
// @Tags Content
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param payload body dto.CreateContentRequest true "Submission draft"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /content [post]
func (h *ContentHandler) Create(c *gin.Context) {
	var req dto.CreateContentRequest
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := h.bindMultipart(c, &req); err != nil {
			response.Error(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	req.UploaderID = claims.EnrollmentID

	item, err := h.engine.AddItem(c.Request.Context(), req)
	if err != nil {
		if req.File != nil && h.uploads != nil {
			h.uploads.Remove(req.File.Ref)
		}
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewContentResponse(*item))
}

// bindMultipart reads the submission draft from the "payload" form
// field and stores an optional "file" attachment before the engine
// sees the draft.
func (h *ContentHandler) bindMultipart(c *gin.Context, req *dto.CreateContentRequest) error {
	payload := c.PostForm("payload")
	if payload == "" {
		return appErrors.Clone(appErrors.ErrValidation, "missing payload form field")
	}
	if err := json.Unmarshal([]byte(payload), req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid file part")
	}
	if h.uploads == nil {
		return appErrors.Clone(appErrors.ErrValidation, "attachments are not enabled")
	}
	meta, err := h.uploads.SaveUpload(header)
	if err != nil {
		return err
	}
	req.File = meta
	return nil
}

// Attachment godoc
// @Summary Download a content item's attachment
// @Tags Content
// @Produce application/octet-stream
// @Param id path string true "Content id"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /content/{id}/file [get]
func (h *ContentHandler) Attachment(c *gin.Context) {
	item, ok := h.engine.Item(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "content item not found"))
		return
	}
	meta := item.File()
	if meta == nil || h.uploads == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "content item has no attachment"))
		return
	}
	file, err := h.uploads.Open(meta.Ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	c.Header("Content-Type", meta.MIME)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

// Delete godoc
// @Summary Delete an owned content item
// @Tags Content
// @Produce json
// @Param id path string true "Content id"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.engine.DeleteItem(c.Request.Context(), c.Param("id"), claims.EnrollmentID, claims.Privileged()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Vote godoc
// @Summary Cast a vote on a content item
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Param payload body dto.VoteRequest true "Vote direction"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /content/{id}/vote [post]
func (h *ContentHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	err := h.engine.Vote(c.Request.Context(), c.Param("id"), models.VoteDirection(req.Direction), claims.EnrollmentID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ForceVerify godoc
// @Summary Force-verify a content item
// @Tags Content
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{id}/verify [post]
func (h *ContentHandler) ForceVerify(c *gin.Context) {
	if err := h.engine.ForceVerify(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"verified": true}, nil)
}

// ForceReject godoc
// @Summary Force-reject and delete a content item
// @Tags Content
// @Produce json
// @Param id path string true "Content id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /content/{id}/reject [post]
func (h *ContentHandler) ForceReject(c *gin.Context) {
	if err := h.engine.ForceReject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CalendarLink godoc
// @Summary Build a calendar event link for a deadline item
// @Tags Content
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /content/{id}/calendar [get]
func (h *ContentHandler) CalendarLink(c *gin.Context) {
	url, err := h.calendar.EventURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CalendarLinkResponse{URL: url}, nil)
}

// Stream godoc
// @Summary Server-sent event stream of content snapshots
// @Tags Content
// @Produce text/event-stream
// @Success 200
// @Router /content/stream [get]
func (h *ContentHandler) Stream(c *gin.Context) {
	// Buffered so a slow client never blocks the engine's critical
	// section; the subscriber callback drops frames when the client
	// cannot keep up, and the next snapshot supersedes anything lost.
	frames := make(chan []dto.ContentResponse, 8)
	unsubscribe := h.stream.Subscribe(func(items []models.ContentItem) {
		select {
		case frames <- dto.NewContentResponses(items):
		default:
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snapshot, ok := <-frames:
			if !ok {
				return false
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				return false
			}
			c.SSEvent("snapshot", string(payload))
			return true
		}
	})
}
