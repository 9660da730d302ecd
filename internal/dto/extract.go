package dto

// ExtractImageRequest carries a base64 image for structured extraction.
type ExtractImageRequest struct {
	Image    string `json:"image" binding:"required"`
	MimeType string `json:"mime_type,omitempty"`
}

// SummarizeRequest carries a base64 PDF for note generation.
type SummarizeRequest struct {
	Document string `json:"document" binding:"required"`
}

// ExtractionResult holds the structured fields pulled out of an
// uploaded image of a blackboard or syllabus.
type ExtractionResult struct {
	SubjectName     string `json:"subjectName"`
	AssignmentTitle string `json:"assignmentTitle"`
	DeadlineDate    string `json:"deadlineDate"`
}

// SummaryResult carries generated study notes for a document.
type SummaryResult struct {
	Notes string `json:"notes"`
}
