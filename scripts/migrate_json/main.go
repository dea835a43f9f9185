// Command migrate_json imports the events.db.json and hands.db.json files of
// the old file-based store into the database. Rows keep their old ids in
// legacy_id, so running it twice does not duplicate anything.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"handscan/internal/config"
	applog "handscan/internal/logger"
	"handscan/models"
)

type CLI struct {
	DataDir string `default:"data" help:"Directory holding events.db.json and hands.db.json"`
	Owner   string `help:"Username that owns the imported events"`
	DryRun  bool   `help:"Read and map the files without writing"`
}

type jsonEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type jsonHand struct {
	ID          string          `json:"id"`
	EventID     string          `json:"eventId"`
	Filename    string          `json:"filename"`
	Path        string          `json:"path"`
	Status      string          `json:"status"`
	TextHistory string          `json:"textHistory"`
	GUIData     json.RawMessage `json:"guiData"`
}

// readList decodes a JSON array file. A missing file is an empty list.
func readList[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func normalizeStatus(s string) string {
	switch up := strings.ToUpper(strings.TrimSpace(s)); up {
	case models.HandUploaded, models.HandNeedsReview, models.HandCompleted:
		return up
	default:
		// PROCESSING never finished in the old store
		return models.HandUploaded
	}
}

// toHand maps a stored hand onto the model. eventID is the new event id.
func toHand(h jsonHand, eventID uint) models.Hand {
	data := datatypes.JSON(`{}`)
	if len(h.GUIData) > 0 && string(h.GUIData) != "null" {
		data = datatypes.JSON(h.GUIData)
	}
	return models.Hand{
		EventID:     eventID,
		FileName:    h.Filename,
		StorePath:   filepath.ToSlash(h.Path),
		Status:      normalizeStatus(h.Status),
		TextHistory: h.TextHistory,
		ParsedData:  data,
		LegacyID:    h.ID,
	}
}

type importer struct {
	db    *gorm.DB
	owner *uint
	log   *zap.Logger
}

type stats struct {
	events, hands, skipped int
}

func (im *importer) events(list []jsonEvent) (map[string]uint, int, error) {
	ids := make(map[string]uint, len(list))
	created := 0
	for _, e := range list {
		ev := models.Event{Name: e.Name, UserID: im.owner, LegacyID: e.ID}
		res := im.db.Where("legacy_id = ?", e.ID).FirstOrCreate(&ev)
		if res.Error != nil {
			return nil, created, fmt.Errorf("event %s: %w", e.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			created++
		}
		ids[e.ID] = ev.ID
	}
	return ids, created, nil
}

func (im *importer) run(events []jsonEvent, hands []jsonHand) (stats, error) {
	var st stats
	ids, created, err := im.events(events)
	st.events = created
	if err != nil {
		return st, err
	}
	for _, h := range hands {
		eventID, ok := ids[h.EventID]
		if !ok {
			im.log.Warn("hand references an unknown event", zap.String("hand", h.ID), zap.String("event", h.EventID))
			st.skipped++
			continue
		}
		row := toHand(h, eventID)
		res := im.db.Where("legacy_id = ?", h.ID).FirstOrCreate(&row)
		if res.Error != nil {
			im.log.Warn("hand not imported", zap.String("hand", h.ID), zap.Error(res.Error))
			st.skipped++
			continue
		}
		if res.RowsAffected > 0 {
			st.hands++
		}
	}
	return st, nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Name("migrate_json"), kong.UsageOnError())

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	log, err := applog.NewConsole(cfg.LogLevel)
	kctx.FatalIfErrorf(err)
	defer log.Sync()

	events, err := readList[jsonEvent](filepath.Join(cli.DataDir, "events.db.json"))
	kctx.FatalIfErrorf(err)
	hands, err := readList[jsonHand](filepath.Join(cli.DataDir, "hands.db.json"))
	kctx.FatalIfErrorf(err)
	log.Info("found legacy data", zap.Int("events", len(events)), zap.Int("hands", len(hands)))
	if cli.DryRun {
		return
	}

	if cfg.DBDSN == "" {
		kctx.Fatalf("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	kctx.FatalIfErrorf(err, "failed to open db")
	kctx.FatalIfErrorf(db.AutoMigrate(&models.Event{}, &models.Hand{}))

	im := &importer{db: db, log: log}
	if cli.Owner != "" {
		var u models.User
		if err := db.Where("username = ?", cli.Owner).First(&u).Error; err != nil {
			kctx.Fatalf("owner %s: %v", cli.Owner, err)
		}
		im.owner = &u.ID
	}
	st, err := im.run(events, hands)
	kctx.FatalIfErrorf(err)
	log.Info("migration complete", zap.Int("events", st.events), zap.Int("hands", st.hands), zap.Int("skipped", st.skipped))
}
