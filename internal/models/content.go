package models

import (
	"time"

	"github.com/lib/pq"
)

// ContentType enumerates the kinds of contributed knowledge.
type ContentType string

const (
	ContentNote         ContentType = "note"
	ContentDeadline     ContentType = "deadline"
	ContentCancellation ContentType = "cancellation"
	ContentTest         ContentType = "test"
	ContentLab          ContentType = "lab"
	ContentOther        ContentType = "other"
)

// RequiresDeadline reports whether the type must carry a deadline date.
func (t ContentType) RequiresDeadline() bool {
	return t == ContentDeadline || t == ContentTest
}

// Valid reports whether the type belongs to the fixed enumeration.
func (t ContentType) Valid() bool {
	switch t {
	case ContentNote, ContentDeadline, ContentCancellation, ContentTest, ContentLab, ContentOther:
		return true
	default:
		return false
	}
}

// FileMetadata describes an uploaded attachment. Ref is an opaque
// reference into the blob store, never raw bytes.
type FileMetadata struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`
	Ref  string `json:"ref"`
}

// ContentItem is a unit of contributed knowledge moving through the
// pending -> verified | rejected lifecycle.
type ContentItem struct {
	ID             string         `db:"id" json:"id"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	Title          string         `db:"title" json:"title"`
	Type           ContentType    `db:"type" json:"type"`
	Content        string         `db:"content" json:"content"`
	UploaderID     string         `db:"uploader_id" json:"uploader_id"`
	UploaderBranch string         `db:"uploader_branch" json:"uploader_branch"`
	Timestamp      time.Time      `db:"created_at" json:"timestamp"`
	Upvotes        int            `db:"upvotes" json:"upvotes"`
	Downvotes      int            `db:"downvotes" json:"downvotes"`
	IsVerified     bool           `db:"is_verified" json:"is_verified"`
	DeadlineDate   string         `db:"deadline_date" json:"deadline_date,omitempty"`
	VotedUsers     pq.StringArray `db:"voted_users" json:"voted_users"`

	FileName *string `db:"file_name" json:"-"`
	FileSize *int64  `db:"file_size" json:"-"`
	FileMIME *string `db:"file_mime" json:"-"`
	FileRef  *string `db:"file_ref" json:"-"`
}

// File assembles attachment metadata from the flattened columns.
func (c *ContentItem) File() *FileMetadata {
	if c.FileRef == nil || *c.FileRef == "" {
		return nil
	}
	meta := &FileMetadata{Ref: *c.FileRef}
	if c.FileName != nil {
		meta.Name = *c.FileName
	}
	if c.FileSize != nil {
		meta.Size = *c.FileSize
	}
	if c.FileMIME != nil {
		meta.MIME = *c.FileMIME
	}
	return meta
}

// SetFile flattens attachment metadata into the stored columns.
func (c *ContentItem) SetFile(meta *FileMetadata) {
	if meta == nil {
		c.FileName, c.FileSize, c.FileMIME, c.FileRef = nil, nil, nil, nil
		return
	}
	name, size, mime, ref := meta.Name, meta.Size, meta.MIME, meta.Ref
	c.FileName, c.FileSize, c.FileMIME, c.FileRef = &name, &size, &mime, &ref
}

// HasVoted reports whether the given user already appears in the vote log.
func (c *ContentItem) HasVoted(userID string) bool {
	for _, id := range c.VotedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots never alias the engine's state.
func (c ContentItem) Clone() ContentItem {
	out := c
	out.VotedUsers = append(pq.StringArray(nil), c.VotedUsers...)
	if c.FileName != nil {
		v := *c.FileName
		out.FileName = &v
	}
	if c.FileSize != nil {
		v := *c.FileSize
		out.FileSize = &v
	}
	if c.FileMIME != nil {
		v := *c.FileMIME
		out.FileMIME = &v
	}
	if c.FileRef != nil {
		v := *c.FileRef
		out.FileRef = &v
	}
	return out
}

// VoteDirection identifies the polarity of a cast vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether the direction is one of up/down.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// FeedFilter captures read-side filters over the content snapshot.
type FeedFilter struct {
	SubjectID    string
	Branch       string
	Type         ContentType
	VerifiedOnly bool
	UpcomingOnly bool
}
