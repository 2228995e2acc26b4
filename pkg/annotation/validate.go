package annotation

import (
	"strings"
)

const (
	MessageValidationFailed   = "Validation failed"
	MessageDocumentIDRequired = "documentId is required"
	MessageSelectedText       = "selectedText is required and must be a non-empty string"
	MessageComment            = "comment is required and must be a non-empty string"
	MessageCommentNonEmpty    = "comment must be a non-empty string"
	MessageHighPriority       = "isHighPriority must be a boolean"
	MessagePageNumber         = "positionData.pageNumber must be a positive integer"
	MessageRects              = "positionData.rects must be a non-empty array"
	MessageRect               = "Each rect must have x, y, width, height as numbers >= 0"
	MessageNoUpdatableField   = "At least one updatable field (comment, isHighPriority) must be provided"
)

// ValidatePosition returns the first problem with p, or an empty string.
func ValidatePosition(p Position) string {
	if p.PageNumber < 1 {
		return MessagePageNumber
	}
	if len(p.Rects) == 0 {
		return MessageRects
	}
	for _, rect := range p.Rects {
		if rect.X < 0 || rect.Y < 0 || rect.Width < 0 || rect.Height < 0 {
			return MessageRect
		}
	}
	return ""
}

// Validate checks every field and reports all problems at once.
func (r CreateRequest) Validate() error {
	details := []string{}
	if r.DocumentID == "" {
		details = append(details, MessageDocumentIDRequired)
	}
	if strings.TrimSpace(r.SelectedText) == "" {
		details = append(details, MessageSelectedText)
	}
	if strings.TrimSpace(r.Comment) == "" {
		details = append(details, MessageComment)
	}
	if message := ValidatePosition(r.Position); message != "" {
		details = append(details, message)
	}
	if len(details) > 0 {
		return &ValidationError{Message: MessageValidationFailed, Details: details}
	}
	return nil
}

// Normalized trims the text fields.
func (r CreateRequest) Normalized() CreateRequest {
	r.SelectedText = strings.TrimSpace(r.SelectedText)
	r.Comment = strings.TrimSpace(r.Comment)
	return r
}

// Validate requires at least one field and a non-blank comment when one is given.
func (r UpdateRequest) Validate() error {
	if r.Comment == nil && r.IsHighPriority == nil {
		return &ValidationError{Message: MessageNoUpdatableField}
	}
	if r.Comment != nil && strings.TrimSpace(*r.Comment) == "" {
		return &ValidationError{Message: MessageCommentNonEmpty}
	}
	return nil
}

// Normalized trims the comment when one is given.
func (r UpdateRequest) Normalized() UpdateRequest {
	if r.Comment != nil {
		comment := strings.TrimSpace(*r.Comment)
		r.Comment = &comment
	}
	return r
}
