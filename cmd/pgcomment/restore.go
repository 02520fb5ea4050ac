package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rickchristie/pgcomment"
)

func runRestore() error {
	f, err := parseEntityFlags("restore", "in", "Read the snapshot from this file instead of stdin", os.Args[2:])
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if f.file != "" {
		file, err := os.Open(f.file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.file, err)
		}
		defer file.Close()
		in = file
	}
	snapshot, err := readSnapshot(in)
	if err != nil {
		return err
	}

	ctx := context.Background()
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	svc, err := openService(ctx, serverConfig, setupLogger(serverConfig.Logging))
	if err != nil {
		return err
	}
	defer svc.Close(ctx)

	if err := svc.Save(ctx, f.table, f.schema, snapshot); err != nil {
		return fmt.Errorf("%s", svc.Annotate(err))
	}
	fmt.Fprintf(os.Stderr, "Restored %d part(s) of the snapshot onto %s\n", len(snapshot.Entries()), f.table)
	return nil
}

// readSnapshot decodes and validates a snapshot before any connection is
// opened, so a malformed file never prompts for credentials.
func readSnapshot(r io.Reader) (pgcomment.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return pgcomment.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot pgcomment.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return pgcomment.Snapshot{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	if snapshot.IsEmpty() {
		return pgcomment.Snapshot{}, fmt.Errorf("invalid snapshot: %w", pgcomment.ErrEmptySnapshot)
	}
	return snapshot, nil
}
