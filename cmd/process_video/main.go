// Command process_video samples a poker video, reads the frames and prints
// the extracted hand history as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"handscan/internal/config"
	applog "handscan/internal/logger"
	"handscan/pkg/video"
	"handscan/process/analysis"
)

type CLI struct {
	Video     string `arg:"" help:"Video file to analyse"`
	OutputDir string `arg:"" optional:"" name:"output_dir" help:"Directory to save the sampled frames in"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("process_video"),
		kong.Description("Extract a poker hand history from a video"),
		kong.UsageOnError(),
	)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(2)
	}
	log, err := applog.NewConsole(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(2)
	}
	defer log.Sync()

	p, err := analysis.NewFromConfig(cfg, cli.OutputDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if code := run(ctx, p, cli.Video, os.Stdout, os.Stderr); code != 0 {
		_ = log.Sync()
		kctx.Exit(code)
	}
}

// run analyses path at the default timestamps and writes the JSON envelope
// to stdout. It returns the process exit code.
func run(ctx context.Context, p *analysis.Pipeline, path string, stdout, stderr io.Writer) int {
	p.Timestamps = analysis.DefaultTimestamps
	res, err := p.Run(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, video.ErrSourceNotFound):
			fmt.Fprintf(stderr, "Error: video file not found: %s\n", path)
		case errors.Is(err, video.ErrSourceUnopenable):
			fmt.Fprintf(stderr, "Error: could not open video: %s\n", path)
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		if p.Logger != nil {
			p.Logger.Debug("analysis failed", zap.Error(err))
		}
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
