package dto

import "github.com/openverse/campus-api/internal/models"

// CreateContentRequest is the submission draft. Uploader identity comes
// from the access token, never from the payload.
type CreateContentRequest struct {
	SubjectID    string `json:"subject_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Content      string `json:"content"`
	DeadlineDate string `json:"deadline_date,omitempty"`

	UploaderID string               `json:"-"`
	File       *models.FileMetadata `json:"-"`
}

// VoteRequest casts an up or down vote on a content item.
type VoteRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ContentResponse is the wire shape of a content item.
type ContentResponse struct {
	ID             string               `json:"id"`
	SubjectID      string               `json:"subject_id"`
	SubjectName    string               `json:"subject_name,omitempty"`
	Title          string               `json:"title"`
	Type           models.ContentType   `json:"type"`
	Content        string               `json:"content"`
	UploaderID     string               `json:"uploader_id"`
	UploaderBranch string               `json:"uploader_branch"`
	Timestamp      int64                `json:"timestamp"`
	Upvotes        int                  `json:"upvotes"`
	Downvotes      int                  `json:"downvotes"`
	IsVerified     bool                 `json:"is_verified"`
	DeadlineDate   string               `json:"deadline_date,omitempty"`
	File           *models.FileMetadata `json:"file,omitempty"`
	VoteCount      int                  `json:"vote_count"`
}

// NewContentResponse maps a model onto the wire shape.
func NewContentResponse(item models.ContentItem) ContentResponse {
	return ContentResponse{
		ID:             item.ID,
		SubjectID:      item.SubjectID,
		Title:          item.Title,
		Type:           item.Type,
		Content:        item.Content,
		UploaderID:     item.UploaderID,
		UploaderBranch: item.UploaderBranch,
		Timestamp:      item.Timestamp.UnixMilli(),
		Upvotes:        item.Upvotes,
		Downvotes:      item.Downvotes,
		IsVerified:     item.IsVerified,
		DeadlineDate:   item.DeadlineDate,
		File:           item.File(),
		VoteCount:      len(item.VotedUsers),
	}
}

// NewContentResponses maps a snapshot onto wire shapes preserving order.
func NewContentResponses(items []models.ContentItem) []ContentResponse {
	out := make([]ContentResponse, len(items))
	for i, item := range items {
		out[i] = NewContentResponse(item)
	}
	return out
}

// CreateSubjectRequest registers a new subject category.
type CreateSubjectRequest struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Code  string `json:"code" validate:"required"`
	Color string `json:"color"`
}

// UpdateProfileRequest merges profile fields into a user record.
type UpdateProfileRequest struct {
	Mobile     *string `json:"mobile,omitempty"`
	ProfilePic *string `json:"profile_pic,omitempty"`
}

// CalendarLinkResponse carries an external calendar URL for an item.
type CalendarLinkResponse struct {
	URL string `json:"url"`
}
