package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/srttts/internal/config"
	"golang.org/x/term"
)

// defaultLogFile is the --log-file value when the flag is given bare.
const defaultLogFile = "default"

var (
	debug    bool
	logFile  string
	closeLog = func() error { return nil }
)

func getLogFilePath() (string, error) {
	if logFile != defaultLogFile {
		return config.ExpandPath(logFile), nil
	}
	return config.LogFilePath()
}

// setupLog sends logs to w, and additionally to --log-file when set. Logs
// use logfmt whenever they are not going to a terminal.
func setupLog(w io.Writer) (func() error, error) {
	log.SetOutput(w)
	log.SetReportTimestamp(false)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec
		log.SetFormatter(log.LogfmtFormatter)
	}

	if logFile == "" {
		return func() error { return nil }, nil
	}

	path, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(w, f))
	log.SetFormatter(log.LogfmtFormatter)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
