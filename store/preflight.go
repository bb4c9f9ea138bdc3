package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const preflightTimeout = 2 * time.Second

// preflight runs a bounded WAL checkpoint and quick_check against the spot
// database before the main open path. A file that fails either check, or
// cannot be checked within the timeout, is renamed aside together with its
// sidecars so startup continues with a fresh database instead of stalling
// on a corrupt one.
func preflight(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("preflight: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("preflight: ensure dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), preflightTimeout)
	defer cancel()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("preflight: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", preflightTimeout.Milliseconds())); err != nil {
		db.Close()
		return fmt.Errorf("preflight: busy_timeout: %w", err)
	}

	_, checkpointErr := db.ExecContext(ctx, "pragma wal_checkpoint(TRUNCATE)")
	checkErr := quickCheck(ctx, db)
	db.Close()

	if checkpointErr == nil && checkErr == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("preflight: timed out after %s", preflightTimeout)
	}

	quarantined, err := quarantine(path)
	if err != nil {
		return fmt.Errorf("preflight: quarantine failed: %w (checkpoint=%v, quick_check=%v)",
			err, checkpointErr, checkErr)
	}
	log.Printf("Store: preflight failed (checkpoint=%v, quick_check=%v), quarantined to %s",
		checkpointErr, checkErr, quarantined)
	return nil
}

func quickCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "pragma quick_check")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return err
		}
		if strings.TrimSpace(status) != "ok" {
			return fmt.Errorf("quick_check reported %q", status)
		}
	}
	return rows.Err()
}

// quarantine renames the database and any sidecar files to a timestamped
// .bad path. Sidecars may already be gone after a failed checkpoint; a
// missing one is not an error.
func quarantine(path string) (string, error) {
	ts := time.Now().UTC().Format("20060102T150405Z")
	dest := path + ".bad-" + ts
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := os.Rename(p, p+".bad-"+ts); err != nil {
			return "", err
		}
	}
	return dest, nil
}
