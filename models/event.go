package models

import "time"

// Event groups the hands recorded at one tournament or session.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	// UserID is nil for events imported without an owner.
	UserID   *uint  `gorm:"index" json:"userId,omitempty"`
	LegacyID string `gorm:"size:64;index" json:"-"`
	Hands    []Hand `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"hands,omitempty"`
}
