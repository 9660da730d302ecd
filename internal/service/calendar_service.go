package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/openverse/campus-api/internal/models"
	appErrors "github.com/openverse/campus-api/pkg/errors"
)

type itemLookup interface {
	Item(id string) (models.ContentItem, bool)
}

type subjectLookup interface {
	Get(ctx context.Context, id string) (*models.Subject, error)
}

const calendarRenderBase = "https://calendar.google.com/calendar/render"

// CalendarService builds external calendar links for deadline-bearing
// content items. The link is a Google Calendar event template; the
// service itself never talks to Google.
type CalendarService struct {
	items    itemLookup
	subjects subjectLookup
	logger   *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(items itemLookup, subjects subjectLookup, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{items: items, subjects: subjects, logger: logger}
}

// EventURL returns an all-day event template URL for the item's
// deadline. Items without a deadline, or with an unparseable one, are
// rejected as validation errors.
func (s *CalendarService) EventURL(ctx context.Context, itemID string) (string, error) {
	item, ok := s.items.Item(itemID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "content item not found")
	}
	if item.DeadlineDate == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "content item has no deadline to export")
	}

	day, err := time.Parse("2006-01-02", item.DeadlineDate)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "content item deadline is not a valid date")
	}

	title := item.Title
	if s.subjects != nil {
		if subject, err := s.subjects.Get(ctx, item.SubjectID); err == nil {
			title = fmt.Sprintf("[%s] %s", subject.Code, item.Title)
		}
	}

	// All-day events use an exclusive end date.
	start := day.Format("20060102")
	end := day.AddDate(0, 0, 1).Format("20060102")

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", title)
	params.Set("dates", start+"/"+end)
	if item.Content != "" {
		params.Set("details", item.Content)
	}

	return calendarRenderBase + "?" + params.Encode(), nil
}
