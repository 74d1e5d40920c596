package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/visual-field-mcp/internal/calibration"
	"github.com/ironsheep/visual-field-mcp/internal/chart"
	"github.com/ironsheep/visual-field-mcp/internal/config"
	"github.com/ironsheep/visual-field-mcp/internal/httpapi"
	"github.com/ironsheep/visual-field-mcp/internal/imaging"
	"github.com/ironsheep/visual-field-mcp/internal/logging"
	"github.com/ironsheep/visual-field-mcp/internal/pipeline"
	"github.com/ironsheep/visual-field-mcp/internal/server"
	"github.com/ironsheep/visual-field-mcp/internal/telegram"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `visual-field - Goldmann perimetry chart analyzer

Usage:
  visual-field [mcp]         MCP server over stdin/stdout (default)
  visual-field serve         HTTP API
  visual-field bot           Telegram bot
  visual-field analyze -image chart.png [options]
                             analyse one chart and print JSON

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Environment variables:
  VISUAL_FIELD_CONFIG=path        YAML configuration (default visual-field.yaml)
  VISUAL_FIELD_LOG_LEVEL=debug    Log level
  VISUAL_FIELD_LOG_FORMAT=json    Log format
  VISUAL_FIELD_HTTP_ADDR=:8080    HTTP listen address
  TELEGRAM_TOKEN=...              Bot token
  SENTRY_DSN=...                  Report HTTP errors to Sentry

A .env file in the working directory is read first.
`

func main() {
	cmd := "mcp"
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("visual-field %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		}
		cmd, args = args[0], args[1:]
	}

	server.Version = Version
	httpapi.Version = Version

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// Logs always go to stderr; stdout carries MCP and analyze output.
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	pcfg, err := cfg.Pipeline()
	if err != nil {
		logger.Fatalf("Invalid analysis configuration: %v", err)
	}
	logger.WithFields(log.Fields{"version": Version, "commit": GitCommit, "command": cmd}).Debug("starting")

	switch cmd {
	case "mcp":
		err = runMCP(pcfg, logger)
	case "serve":
		err = runHTTP(cfg, pcfg, logger)
	case "bot":
		err = runBot(cfg, pcfg, logger)
	case "analyze", "analyse":
		err = runAnalyze(pcfg, logger, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", cmd, err)
	}
}

func runMCP(pcfg pipeline.Config, logger *log.Logger) error {
	srv, err := server.New(pcfg, logger)
	if err != nil {
		return err
	}
	return srv.Run()
}

func runHTTP(cfg *config.Config, pcfg pipeline.Config, logger *log.Logger) error {
	srv, err := httpapi.New(pcfg, httpapi.Options{
		MaxUploadBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
		SentryDSN:      cfg.HTTP.SentryDSN,
		Mode:           cfg.HTTP.Mode,
	}, logger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(cfg.HTTP.Addr)
}

func runBot(cfg *config.Config, pcfg pipeline.Config, logger *log.Logger) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("no bot token (set %s)", config.EnvTelegram)
	}
	analyzer, err := pipeline.New(pcfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, analyzer, logger)
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("stopping bot")
		bot.Stop()
	}()
	return bot.Run()
}

func runAnalyze(pcfg pipeline.Config, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	imagePath := fs.String("image", "", "chart image (required)")
	center := fs.String("center", "", "fixation point x,y")
	ref := fs.String("ref", "", "point on the 90° ring x,y (requires -center)")
	eye := fs.String("eye", "full", "full, left or right")
	preset := fs.String("preset", "", "colour preset")
	overlay := fs.String("overlay", "", "write the overlay PNG to this file")
	mask := fs.String("mask", "", "write the mask PNG to this file")
	points := fs.Bool("points", false, "include isoptère polygons in the output")
	fs.Parse(args)

	if *imagePath == "" {
		fs.Usage()
		return fmt.Errorf("-image is required")
	}
	if *preset != "" {
		rule, err := chart.WithPreset(pcfg.Segment.Rule, *preset)
		if err != nil {
			return err
		}
		pcfg.Segment.Rule = rule
	}
	e, err := imaging.ParseEye(*eye)
	if err != nil {
		return err
	}

	req := chart.Request{
		Eye:           e,
		Overlay:       *overlay != "",
		Mask:          *mask != "",
		PreviewSide:   -1,
		IncludePoints: *points,
	}
	switch {
	case *ref != "":
		if *center == "" {
			return fmt.Errorf("-ref requires -center")
		}
		c, err := chart.ParsePoint(*center)
		if err != nil {
			return err
		}
		r, err := chart.ParsePoint(*ref)
		if err != nil {
			return err
		}
		req.Calibration = &calibration.Points{Center: c, Reference: r}
	case *center != "":
		c, err := chart.ParsePoint(*center)
		if err != nil {
			return err
		}
		req.Center = &c
	}

	analyzer, err := pipeline.New(pcfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	dec, err := imaging.NewImageCache().Load(*imagePath)
	if err != nil {
		return err
	}
	req.Image = dec.Image

	rep, err := chart.Run(analyzer, req)
	if err != nil {
		return err
	}
	if err := writePNG(*overlay, rep.OverlayImage); err != nil {
		return err
	}
	if err := writePNG(*mask, rep.MaskImage); err != nil {
		return err
	}
	// Renderings went to files.
	rep.Overlay, rep.Mask = nil, nil

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writePNG(path string, img image.Image) error {
	if path == "" || img == nil {
		return nil
	}
	data, err := imaging.PNGBytes(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
