// Package config loads process configuration from the environment, after
// merging a local .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string `env:"DB_DSN"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	JWTSecret     string `env:"JWT_SECRET"      envDefault:"dev-insecure-secret-change"`
	UploadBase    string `env:"UPLOAD_BASE"     envDefault:"uploads"`
	ListenAddr    string `env:"LISTEN_ADDR"     envDefault:":8081"`
	LogLevel      string `env:"LOG_LEVEL"       envDefault:"info"`

	Mode         string `env:"HANDSCAN_MODE"         envDefault:"text"`
	Threshold    string `env:"HANDSCAN_THRESHOLD"    envDefault:"adaptive"`
	StackSuffix  string `env:"HANDSCAN_STACK_SUFFIX" envDefault:"legacy"`
	FFmpegBin    string `env:"FFMPEG_BIN"            envDefault:"ffmpeg"`
	FFprobeBin   string `env:"FFPROBE_BIN"           envDefault:"ffprobe"`
	OCRLanguage  string `env:"OCR_LANGUAGE"          envDefault:"eng"`
	UploadMaxMiB int64  `env:"UPLOAD_MAX_MB"         envDefault:"512"`

	WatchDir     string `env:"WATCH_DIR"      envDefault:"inbox"`
	WatchEventID uint   `env:"WATCH_EVENT_ID"`
	WatchWorkers int    `env:"WATCH_WORKERS"  envDefault:"2"`
}

// Load reads ./.env without overriding variables that are already set, then
// parses the environment.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.WatchWorkers < 1 {
		cfg.WatchWorkers = 1
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	return cfg, nil
}

// UploadMaxBytes is the request body cap for video uploads.
func (c *Config) UploadMaxBytes() int64 {
	return c.UploadMaxMiB << 20
}
