package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggingWritesFile(t *testing.T) {
	orig := log.Writer()
	origFlags := log.Flags()
	defer func() {
		log.SetOutput(orig)
		log.SetFlags(origFlags)
	}()

	path := filepath.Join(t.TempDir(), "logs", "spotfeed.log")
	closer, err := setupLogging(path)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}

	log.Println("hello from the test")
	closer()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from the test") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestSetupLoggingNoFile(t *testing.T) {
	orig := log.Writer()
	origFlags := log.Flags()
	defer func() {
		log.SetOutput(orig)
		log.SetFlags(origFlags)
	}()

	closer, err := setupLogging("  ")
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	closer()
}
