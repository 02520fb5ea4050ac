package pgcomment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/rickchristie/pgcomment/internal/timeout"
)

// timedDB bounds every statement with the timeout the manager picks for it.
// Exec is a write, Query is a read.
type timedDB struct {
	db       DB
	timeouts *timeout.Manager
	logger   zerolog.Logger
}

func (t *timedDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, cancel := t.withTimeout(ctx, sql, false)
	rows, err := t.db.Query(ctx, sql, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelOnClose{Rows: rows, cancel: cancel}, nil
}

func (t *timedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, cancel := t.withTimeout(ctx, sql, true)
	defer cancel()
	return t.db.Exec(ctx, sql, args...)
}

func (t *timedDB) withTimeout(ctx context.Context, sql string, write bool) (context.Context, context.CancelFunc) {
	d, pattern := t.timeouts.GetTimeoutWithPattern(sql, write)
	if pattern != "" {
		t.logger.Debug().Str("pattern", pattern).Dur("timeout", d).Msg("timeout rule matched")
	}
	return context.WithTimeout(ctx, d)
}

// cancelOnClose keeps the statement context alive until the rows are drained.
type cancelOnClose struct {
	pgx.Rows
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() {
	r.Rows.Close()
	r.cancel()
}
