// Package report summarises the hands of an event by review status.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"handscan/models"
)

type Summary struct {
	EventID  uint           `json:"eventId"`
	Name     string         `json:"name"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	// Failed counts hands whose last analysis reverted with a reason.
	Failed int           `json:"failed"`
	Hands  []models.Hand `json:"-"`
}

// Summarize counts hands per status.
func Summarize(ev models.Event, hands []models.Hand) Summary {
	s := Summary{
		EventID:  ev.ID,
		Name:     ev.Name,
		Total:    len(hands),
		ByStatus: map[string]int{},
		Hands:    hands,
	}
	for _, st := range []string{models.HandUploaded, models.HandProcessing, models.HandNeedsReview, models.HandCompleted} {
		s.ByStatus[st] = 0
	}
	for _, h := range hands {
		s.ByStatus[h.Status]++
		if h.FailedReason != "" {
			s.Failed++
		}
	}
	return s
}

// ForEvent loads the event and its hands and summarises them.
func ForEvent(db *gorm.DB, eventID uint) (Summary, error) {
	var ev models.Event
	if err := db.First(&ev, eventID).Error; err != nil {
		return Summary{}, fmt.Errorf("event %d: %w", eventID, err)
	}
	var hands []models.Hand
	if err := db.Where("event_id = ?", eventID).Order("id").Find(&hands).Error; err != nil {
		return Summary{}, fmt.Errorf("hands of event %d: %w", eventID, err)
	}
	return Summarize(ev, hands), nil
}

// Write prints the summary; with list set one line per hand follows.
func (s Summary) Write(w io.Writer, list bool) error {
	if _, err := fmt.Fprintf(w, "Report for event=%d %q:\n  hands=%d failed=%d\n", s.EventID, s.Name, s.Total, s.Failed); err != nil {
		return err
	}
	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		if _, err := fmt.Fprintf(w, "  %s=%d\n", st, s.ByStatus[st]); err != nil {
			return err
		}
	}
	if !list {
		return nil
	}
	for _, h := range s.Hands {
		if _, err := fmt.Fprintf(w, "%d|%s|%s|%s|%s\n", h.ID, h.FileName, h.Status, h.UpdatedAt.Format(time.RFC3339), h.FailedReason); err != nil {
			return err
		}
	}
	return nil
}
