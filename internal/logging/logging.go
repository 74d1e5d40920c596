// Package logging builds the logrus logger shared by the front-ends.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr. stdout carries the MCP protocol
// and must stay clean.
//
// level is debug, info, warn or error (empty means info); format is text or
// json (empty means text).
func New(level, format string) (*log.Logger, error) {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level, format string) (*log.Logger, error) {
	logger := log.New()
	logger.Out = w

	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		logger.Formatter = &log.TextFormatter{DisableColors: true, FullTimestamp: true}
	case "json":
		logger.Formatter = &log.JSONFormatter{}
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
	return logger, nil
}
