// Package reanalyze reruns the analysis over hands already stored, for
// instance after the OCR settings changed or analyses failed.
package reanalyze

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"handscan/models"
)

// Analyzer is satisfied by *hands.Service.
type Analyzer interface {
	Analyze(ctx context.Context, id uint) (*models.Hand, error)
}

// Candidates lists the hands of an event in the given statuses, oldest
// first. An empty status list selects UPLOADED.
func Candidates(db *gorm.DB, eventID uint, statuses []string) ([]models.Hand, error) {
	if len(statuses) == 0 {
		statuses = []string{models.HandUploaded}
	}
	var out []models.Hand
	err := db.Where("event_id = ? AND status IN ?", eventID, statuses).Order("id").Find(&out).Error
	return out, err
}

type Options struct {
	DryRun  bool
	Workers int
}

type Result struct {
	Updated int
	Failed  int
}

// Run analyses each hand, at most Workers at a time, and prints one line
// per hand to w. A failing hand does not stop the others.
func Run(ctx context.Context, a Analyzer, list []models.Hand, opts Options, w io.Writer, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		mu  sync.Mutex
		res Result
	)
	if opts.DryRun {
		for _, h := range list {
			fmt.Fprintf(w, "DRY: would analyse hand id=%d file=%s status=%s\n", h.ID, h.FileName, h.Status)
		}
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for _, h := range list {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			updated, err := a.Analyze(gctx, h.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				log.Warn("reanalysis failed", zap.Uint("hand_id", h.ID), zap.Error(err))
				fmt.Fprintf(w, "failed hand id=%d file=%s: %v\n", h.ID, h.FileName, err)
				return nil
			}
			res.Updated++
			fmt.Fprintf(w, "updated hand id=%d file=%s status=%s\n", updated.ID, updated.FileName, updated.Status)
			return nil
		})
	}
	err := g.Wait()
	return res, err
}
