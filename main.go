package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"handscan/internal/config"
	"handscan/internal/hands"
	applog "handscan/internal/logger"
	"handscan/models"
	"handscan/pkg/handhistory"
	"handscan/process/analysis"
	"handscan/process/watcher"
)

var (
	appCfg    *config.Config
	logger    = zap.NewNop()
	jwtSecret []byte
	handSvc   *hands.Service
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API (default)"`
	Migrate MigrateCmd `cmd:"" help:"Run migrations and seeding, then exit"`
	Watch   WatchCmd   `cmd:"" help:"Analyse videos dropped into an inbox directory"`

	Report    ReportCmd    `cmd:"" help:"Summarise the hands of an event"`
	Reanalyze ReanalyzeCmd `cmd:"" help:"Run the analysis again over stored hands"`
	Sanitize  SanitizeCmd  `cmd:"" help:"Database maintenance"`
	Ocr       OcrCmd       `cmd:"" help:"Run OCR over a single frame image"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("handscan"),
		kong.Description("Poker hand history extraction from video"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	_ = logger.Sync()
	ctx.FatalIfErrorf(err)
}

// bootstrap loads configuration and the logger into package state.
func bootstrap() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := applog.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	appCfg, logger = cfg, log
	jwtSecret = []byte(cfg.JWTSecret)
	return nil
}

// startServices connects the database and builds the hand service.
func startServices() error {
	gdb, err := openDB(appCfg.DBDSN, appCfg.DBAutoMigrate)
	if err != nil {
		return err
	}
	db = gdb
	pipeline, err := analysis.NewFromConfig(appCfg, "", logger)
	if err != nil {
		return err
	}
	handSvc = &hands.Service{
		DB:          db,
		Analyzer:    pipeline,
		UploadBase:  uploadBaseDir(),
		StackSuffix: pipeline.StackSuffix,
		Logger:      logger,
	}
	return nil
}

type ServeCmd struct {
	Addr string `help:"Listen address (overrides LISTEN_ADDR)"`
}

func (s *ServeCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	if err := startServices(); err != nil {
		return err
	}
	addr := appCfg.ListenAddr
	if s.Addr != "" {
		addr = s.Addr
	}

	r := gin.Default()
	setupRoutes(r)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

type MigrateCmd struct{}

func (MigrateCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	if _, err := openDB(appCfg.DBDSN, true); err != nil {
		return err
	}
	fmt.Println("migration and seeding completed")
	return nil
}

type WatchCmd struct {
	Dir     string `help:"Inbox directory (overrides WATCH_DIR)"`
	EventID uint   `name:"event-id" help:"Event that receives the hands (overrides WATCH_EVENT_ID)"`
	Workers int    `help:"Concurrent analyses (overrides WATCH_WORKERS)"`
}

func (w *WatchCmd) Run() error {
	if err := bootstrap(); err != nil {
		return err
	}
	if err := startServices(); err != nil {
		return err
	}
	dir, eventID, workers := appCfg.WatchDir, appCfg.WatchEventID, appCfg.WatchWorkers
	if w.Dir != "" {
		dir = w.Dir
	}
	if w.EventID != 0 {
		eventID = w.EventID
	}
	if w.Workers > 0 {
		workers = w.Workers
	}
	if eventID == 0 {
		return errors.New("watch needs an event id (--event-id or WATCH_EVENT_ID)")
	}
	var ev models.Event
	if err := db.First(&ev, eventID).Error; err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	wt := &watcher.Watcher{
		Dir:     dir,
		Workers: workers,
		Accept:  hands.IsVideo,
		Logger:  logger,
		Handle: func(ctx context.Context, path string) error {
			h, err := handSvc.Ingest(ctx, ev.ID, path)
			if err != nil {
				return err
			}
			rec, err := hands.Record(h)
			if err == nil {
				if notes := handhistory.Review(rec); len(notes) > 0 {
					logger.Info("hand needs attention", zap.Uint("hand_id", h.ID), zap.Strings("notes", notes))
				}
			}
			return nil
		},
	}
	return wt.Run(ctx)
}
