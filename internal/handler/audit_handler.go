package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
	"github.com/openverse/campus-api/pkg/response"
)

type auditLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditHandler serves the privileged-action trail for the admin panel.
type AuditHandler struct {
	repo auditLister
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(repo auditLister) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary Recent privileged actions
// @Tags Audit
// @Produce json
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Router /admin/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list audit logs"))
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
