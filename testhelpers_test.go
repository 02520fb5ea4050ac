package pgcomment_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rickchristie/govner/pgflock/client"
	"github.com/rs/zerolog"

	"github.com/rickchristie/pgcomment"
)

const (
	pgflockLockerPort = 9776
	pgflockPassword   = "pgflock"
)

func acquireTestDB(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: needs a pgflock database")
	}
	connStr, err := client.Lock(pgflockLockerPort, t.Name(), pgflockPassword)
	if err != nil {
		t.Fatalf("Failed to acquire test database: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Unlock(pgflockLockerPort, pgflockPassword, connStr)
	})
	return connStr
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func defaultConfig() pgcomment.Config {
	return pgcomment.Config{
		Pool: pgcomment.PoolConfig{MaxConns: 5},
		Timeouts: pgcomment.TimeoutConfig{
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 10,
		},
	}
}

// testDB holds a raw pool for fixtures and a Service on the same database.
type testDB struct {
	pool *pgxpool.Pool
	svc  *pgcomment.Service
}

func newTestDB(t *testing.T, config pgcomment.Config) *testDB {
	t.Helper()
	connStr := acquireTestDB(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create fixture pool: %v", err)
	}
	t.Cleanup(pool.Close)

	svc, err := pgcomment.Open(ctx, connStr, config, testLogger())
	if err != nil {
		t.Fatalf("Failed to open service: %v", err)
	}
	t.Cleanup(func() { svc.Close(ctx) })
	return &testDB{pool: pool, svc: svc}
}

func (d *testDB) exec(t *testing.T, sql string) {
	t.Helper()
	if _, err := d.pool.Exec(context.Background(), sql); err != nil {
		t.Fatalf("setup failed: %v\n%s", err, sql)
	}
}

func (d *testDB) entity(t *testing.T, name, schema string) *pgcomment.Commenter {
	t.Helper()
	c, err := d.svc.Entity(name, schema)
	if err != nil {
		t.Fatalf("Entity(%q, %q): %v", name, schema, err)
	}
	return c
}
