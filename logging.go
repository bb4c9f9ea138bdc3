package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// setupLogging directs the standard logger to stderr and, when configured,
// an append-only log file. Timestamps are dropped on interactive terminals
// (the terminal scrollback already has them via the shell) and kept for
// files and redirected output.
func setupLogging(file string) (func(), error) {
	var writers []io.Writer
	writers = append(writers, os.Stderr)

	closer := func() {}
	if trimmed := strings.TrimSpace(file); trimmed != "" {
		if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = func() { _ = f.Close() }
	}

	log.SetOutput(io.MultiWriter(writers...))
	if term.IsTerminal(int(os.Stderr.Fd())) && len(writers) == 1 {
		log.SetFlags(0)
	} else {
		log.SetFlags(log.LstdFlags | log.LUTC)
	}
	return closer, nil
}
