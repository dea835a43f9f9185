package models

import (
	"time"

	"gorm.io/datatypes"
)

// Hand lifecycle states.
const (
	HandUploaded    = "UPLOADED"
	HandProcessing  = "PROCESSING"
	HandNeedsReview = "NEEDS_REVIEW"
	HandCompleted   = "COMPLETED"
)

// Hand is one uploaded video and what was extracted from it.
type Hand struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	EventID     uint      `gorm:"index;not null;uniqueIndex:idx_event_file" json:"eventId"`
	FileName    string    `gorm:"size:255;not null;uniqueIndex:idx_event_file" json:"filename"`
	StorePath   string    `gorm:"column:store_path;size:512" json:"path"` // relative to UPLOAD_BASE
	ContentType string    `gorm:"size:128" json:"contentType,omitempty"`
	Status      string    `gorm:"size:32;not null;default:UPLOADED;index" json:"status"`
	TextHistory string    `gorm:"type:text" json:"textHistory"`
	// ParsedData holds the parsed hand record as JSON.
	ParsedData   datatypes.JSON `json:"guiData"`
	FailedReason string         `gorm:"size:255" json:"failedReason,omitempty"`
	LegacyID     string         `gorm:"size:64;index" json:"-"`
}
