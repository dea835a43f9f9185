package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"handscan/pkg/handhistory"
	"handscan/pkg/ocr"
	"handscan/process/reanalyze"
	"handscan/process/report"
	"handscan/process/sanitize"
)

type ReportCmd struct {
	EventID uint `arg:"" name:"event-id" help:"Event to report on"`
	List    bool `help:"List every hand"`
}

func (r *ReportCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	gdb, err := openDB(appCfg.DBDSN, false)
	if err != nil {
		return err
	}
	s, err := report.ForEvent(gdb, r.EventID)
	if err != nil {
		return err
	}
	return s.Write(os.Stdout, r.List)
}

type ReanalyzeCmd struct {
	EventID uint     `arg:"" name:"event-id" help:"Event whose hands are analysed again"`
	Status  []string `default:"UPLOADED" help:"Statuses to select"`
	Workers int      `default:"1" help:"Concurrent analyses"`
	DryRun  bool     `help:"Only list the hands that would be analysed"`
}

func (r *ReanalyzeCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	if err := startServices(); err != nil {
		return err
	}
	statuses := make([]string, 0, len(r.Status))
	for _, s := range r.Status {
		statuses = append(statuses, strings.ToUpper(s))
	}
	list, err := reanalyze.Candidates(db, r.EventID, statuses)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := reanalyze.Run(ctx, handSvc, list, reanalyze.Options{DryRun: r.DryRun, Workers: r.Workers}, os.Stdout, logger)
	logger.Info("reanalysis finished", zap.Int("updated", res.Updated), zap.Int("failed", res.Failed))
	return err
}

type SanitizeCmd struct {
	Tables       []string      `help:"Tables to truncate" default:"hands,events,refresh_tokens,users,roles"`
	Truncate     bool          `help:"Truncate the tables"`
	DryRun       bool          `default:"true" negatable:"" help:"Only show what would be truncated"`
	Yes          bool          `help:"Confirm the truncate"`
	Reseed       bool          `help:"Seed roles and the admin user after truncating"`
	ReleaseAfter time.Duration `name:"release-after" help:"Release hands stuck in PROCESSING longer than this"`
	ShowFKs      bool          `name:"show-fks" help:"List foreign keys"`
}

func (s *SanitizeCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	gdb, err := openDB(appCfg.DBDSN, false)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if s.ReleaseAfter > 0 {
		n, err := sanitize.ReleaseStuck(ctx, gdb, time.Now().Add(-s.ReleaseAfter))
		if err != nil {
			return err
		}
		fmt.Printf("released %d stuck hands\n", n)
	}
	if s.Truncate {
		opts := sanitize.TruncateOptions{DryRun: s.DryRun, Yes: s.Yes}
		if s.Reseed {
			opts.Reseed = func(g *gorm.DB) error { seedDB(g); return nil }
		}
		tables, err := sanitize.Truncate(ctx, gdb, s.Tables, opts, logger)
		if err != nil {
			return err
		}
		fmt.Printf("tables considered for truncation: %s\n", strings.Join(tables, ", "))
		switch {
		case s.DryRun:
			fmt.Println("dry-run enabled; no changes made. Use --no-dry-run --yes to execute.")
		case !s.Yes:
			fmt.Println("destructive operation; pass --yes to confirm. Aborting.")
		}
	}
	if s.ShowFKs {
		return sanitize.ForeignKeys(ctx, gdb, os.Stdout)
	}
	return nil
}

// OcrCmd runs the extractor over a single image, for tuning the threshold
// and language against captured frames.
type OcrCmd struct {
	Image     string `arg:"" type:"existingfile" help:"Frame image"`
	Threshold string `help:"fixed or adaptive (overrides HANDSCAN_THRESHOLD)"`
	Words     bool   `help:"Print the word table and the positional parse"`
	Enhance   bool   `help:"Sharpen and raise contrast first"`
	SavePre   string `name:"save-preprocessed" help:"Write the binarised image here"`
}

func (o *OcrCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	name := appCfg.Threshold
	if o.Threshold != "" {
		name = o.Threshold
	}
	th, err := ocr.ParseThreshold(name)
	if err != nil {
		return err
	}
	img, err := imaging.Open(o.Image)
	if err != nil {
		return fmt.Errorf("open %s: %w", o.Image, err)
	}
	if o.Enhance {
		img = imaging.AdjustContrast(imaging.Sharpen(img, 2.0), 30)
	}
	if o.SavePre != "" {
		if err := imaging.Save(ocr.Preprocess(img, th), o.SavePre); err != nil {
			return err
		}
	}
	ex := &ocr.Extractor{Language: appCfg.OCRLanguage, Threshold: th, Logger: logger}
	if !o.Words {
		text, err := ex.Text(img)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}
	words, err := ex.Words(img)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"words":  words,
		"parsed": handhistory.ParsePositional(words),
	})
}
