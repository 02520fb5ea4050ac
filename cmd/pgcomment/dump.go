package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rickchristie/pgcomment"
)

// entityFlags are the flags shared by dump and restore.
type entityFlags struct {
	table  string
	schema string
	file   string
}

func parseEntityFlags(name, fileFlag, fileUsage string, args []string) (entityFlags, error) {
	var f entityFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.table, "table", "", "Table, view or materialized view name (required)")
	fs.StringVar(&f.schema, "schema", "", "Schema name (defaults to config default_schema, then 'public')")
	fs.StringVar(&f.file, fileFlag, "", fileUsage)
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.table == "" {
		return f, fmt.Errorf("%s: -table is required", name)
	}
	return f, nil
}

func runDump() error {
	f, err := parseEntityFlags("dump", "out", "Write the snapshot to this file instead of stdout", os.Args[2:])
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

	out := io.Writer(os.Stdout)
	if f.file != "" {
		file, err := os.Create(f.file)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.file, err)
		}
		defer file.Close()
		out = file
	}
	return dumpEntity(ctx, svc, f.table, f.schema, out)
}

// dumpEntity writes the entity's comments as an indented JSON snapshot that
// restore accepts unchanged.
func dumpEntity(ctx context.Context, svc *pgcomment.Service, name, schema string, w io.Writer) error {
	c, err := svc.Entity(name, schema)
	if err != nil {
		return err
	}
	kind, err := c.EntityKind(ctx)
	if err != nil {
		return err
	}
	if !kind.Writable() {
		return fmt.Errorf("%s: %w: %s", c.Ref(), pgcomment.ErrUnsupportedEntityKind, kind)
	}
	snapshot, err := c.AllComments(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot.Compact(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
