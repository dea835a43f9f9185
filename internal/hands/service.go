// Package hands stores uploaded hand videos and drives their analysis and
// review lifecycle.
package hands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"handscan/internal/metrics"
	"handscan/models"
	"handscan/pkg/handhistory"
	"handscan/process/analysis"
)

var (
	ErrNotFound        = errors.New("hand not found")
	ErrBusy            = errors.New("hand is already being analysed")
	ErrInvalidFileName = errors.New("invalid file name")
)

// Analyzer is satisfied by *analysis.Pipeline.
type Analyzer interface {
	Run(ctx context.Context, path string) (*analysis.Result, error)
}

type Service struct {
	DB          *gorm.DB
	Analyzer    Analyzer
	UploadBase  string
	StackSuffix handhistory.StackSuffix
	Logger      *zap.Logger
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Get loads a hand by id.
func (s *Service) Get(id uint) (*models.Hand, error) {
	var h models.Hand
	if err := s.DB.First(&h, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// VideoPath is where the hand's video lives on disk.
func (s *Service) VideoPath(h *models.Hand) string {
	return filepath.Join(s.UploadBase, filepath.FromSlash(h.StorePath))
}

// Store saves the video read from r under the event and records an
// UPLOADED hand for it.
func (s *Service) Store(eventID uint, fileName string, r io.Reader, contentType string) (*models.Hand, error) {
	name := SafeFileName(fileName)
	if name == "" {
		return nil, ErrInvalidFileName
	}
	rel, err := saveFile(s.UploadBase, eventID, name, r)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", name, err)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimeFromExt(name)
	}
	h := models.Hand{
		EventID:     eventID,
		FileName:    filepath.Base(rel),
		StorePath:   rel,
		ContentType: contentType,
		Status:      models.HandUploaded,
	}
	if err := s.DB.Create(&h).Error; err != nil {
		_ = os.Remove(filepath.Join(s.UploadBase, filepath.FromSlash(rel)))
		return nil, fmt.Errorf("create hand: %w", err)
	}
	metrics.UploadsTotal.Inc()
	s.log().Info("hand stored", zap.Uint("hand_id", h.ID), zap.Uint("event_id", eventID), zap.String("path", rel))
	return &h, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Analyze runs the pipeline over the hand's video. The hand is PROCESSING
// while it runs, NEEDS_REVIEW on success and back to UPLOADED on failure.
func (s *Service) Analyze(ctx context.Context, id uint) (*models.Hand, error) {
	h, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	claim := s.DB.Model(&models.Hand{}).
		Where("id = ? AND status <> ?", id, models.HandProcessing).
		Update("status", models.HandProcessing)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, ErrBusy
	}

	res, runErr := s.Analyzer.Run(ctx, s.VideoPath(h))
	if runErr != nil {
		s.log().Warn("analysis failed", zap.Uint("hand_id", id), zap.Error(runErr))
		metrics.AnalysesTotal.WithLabelValues("reverted").Inc()
		// ctx may already be done; the revert must still land
		revert := s.DB.WithContext(context.WithoutCancel(ctx)).Model(&models.Hand{}).Where("id = ?", id).
			Updates(map[string]any{"status": models.HandUploaded, "failed_reason": truncate(runErr.Error(), 255)})
		if revert.Error != nil {
			s.log().Error("revert hand status", zap.Uint("hand_id", id), zap.Error(revert.Error))
		}
		return nil, fmt.Errorf("analyse hand %d: %w", id, runErr)
	}

	data, err := json.Marshal(res.ParsedData)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Hand{}).Where("id = ?", id).Updates(map[string]any{
		"status":        models.HandNeedsReview,
		"text_history":  res.RawText,
		"parsed_data":   datatypes.JSON(data),
		"failed_reason": "",
	}).Error; err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return s.Get(id)
}

// UpdateText stores a reviewed text history and marks the hand COMPLETED.
// With reparse set the parsed record is rebuilt from the new text.
func (s *Service) UpdateText(id uint, text string, reparse bool) (*models.Hand, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	fields := map[string]any{"text_history": text, "status": models.HandCompleted}
	if reparse {
		data, err := json.Marshal(handhistory.ParseText(text, handhistory.WithStackSuffix(s.StackSuffix)))
		if err != nil {
			return nil, err
		}
		fields["parsed_data"] = datatypes.JSON(data)
	}
	if err := s.DB.Model(&models.Hand{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Record decodes the stored parsed data. Hands that were never analysed
// yield an empty record.
func Record(h *models.Hand) (handhistory.Record, error) {
	rec := handhistory.NewRecord()
	if len(h.ParsedData) == 0 || string(h.ParsedData) == "null" {
		return rec, nil
	}
	if err := json.Unmarshal(h.ParsedData, &rec); err != nil {
		return rec, fmt.Errorf("decode parsed data of hand %d: %w", h.ID, err)
	}
	if rec.Players == nil {
		rec.Players = []handhistory.Player{}
	}
	if rec.Actions == nil {
		rec.Actions = []handhistory.Action{}
	}
	if rec.Board == nil {
		rec.Board = []string{}
	}
	return rec, nil
}

// Ingest stores the video at path under the event and analyses it. The
// source file is left in place.
func (s *Service) Ingest(ctx context.Context, eventID uint, path string) (*models.Hand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := s.Store(eventID, filepath.Base(path), f, "")
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, h.ID)
}
