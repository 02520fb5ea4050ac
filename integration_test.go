package pgcomment_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rickchristie/pgcomment"
)

func strPtr(s string) *string { return &s }

func TestIntegration_RoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE SCHEMA audit`)
	db.exec(t, `CREATE TABLE audit.events (id bigint PRIMARY KEY, payload jsonb, "Event-Time" timestamptz)`)
	db.exec(t, `CREATE TABLE audit.events_copy (LIKE audit.events)`)

	src := db.entity(t, "events", "audit")
	tricky := "it's \"quoted\"\nsecond line; DROP TABLE x -- ✓"
	err := src.SaveComments(ctx, pgcomment.Snapshot{
		Table:   strPtr(tricky),
		Columns: map[string]string{"id": "Primary key", "Event-Time": "Insert time"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err := src.AllComments(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Table == nil || *snap.Table != tricky {
		t.Fatalf("table comment not stored verbatim: %v", snap.Table)
	}
	wantColumns := map[string]string{"id": "Primary key", "Event-Time": "Insert time"}
	if !reflect.DeepEqual(snap.Columns, wantColumns) {
		t.Fatalf("unexpected columns: %v", snap.Columns)
	}

	dst := db.entity(t, "events_copy", "audit")
	if err := dst.SaveComments(ctx, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	copied, err := dst.AllComments(ctx)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !reflect.DeepEqual(copied, snap) {
		t.Fatalf("copy differs: %+v vs %+v", copied, snap)
	}
}

func TestIntegration_EmptyCommentClears(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE TABLE events (id int)`)
	db.exec(t, `COMMENT ON TABLE events IS 'old'`)
	db.exec(t, `COMMENT ON COLUMN events.id IS 'old id'`)

	c := db.entity(t, "events", "")
	if err := c.SaveComments(ctx, pgcomment.Snapshot{Table: strPtr(""), Columns: map[string]string{"id": ""}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, err := c.AllComments(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if *snap.Table != "" || len(snap.Columns) != 0 {
		t.Fatalf("expected comments removed, got %+v", snap)
	}
}

func TestIntegration_KindDispatch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE TABLE sales (id int, amount numeric)`)
	db.exec(t, `CREATE VIEW sales_v AS SELECT id, amount FROM sales`)
	db.exec(t, `CREATE MATERIALIZED VIEW sales_mv AS SELECT id, amount FROM sales`)

	for name, kind := range map[string]pgcomment.EntityKind{
		"sales":    pgcomment.KindTable,
		"sales_v":  pgcomment.KindView,
		"sales_mv": pgcomment.KindMaterializedView,
	} {
		c := db.entity(t, name, "public")
		got, err := c.EntityKind(ctx)
		if err != nil || got != kind {
			t.Fatalf("%s: kind %s, %v; want %s", name, got, err, kind)
		}
		if err := c.SaveComments(ctx, pgcomment.Snapshot{
			Table:   strPtr("about " + name),
			Columns: map[string]string{"amount": "Amount of " + name},
		}); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		comment, err := c.TableComment(ctx)
		if err != nil || comment != "about "+name {
			t.Fatalf("%s: comment %q, %v", name, comment, err)
		}
	}
}

func TestIntegration_UnsupportedAndMissing(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE TABLE items (id int PRIMARY KEY)`)
	db.exec(t, `CREATE SEQUENCE item_seq`)

	for name, kind := range map[string]pgcomment.EntityKind{
		"items_pkey": pgcomment.KindIndex,
		"item_seq":   pgcomment.KindSequence,
		"nope":       pgcomment.KindUnknown,
	} {
		c := db.entity(t, name, "public")
		got, err := c.EntityKind(ctx)
		if err != nil || got != kind {
			t.Fatalf("%s: kind %s, %v; want %s", name, got, err, kind)
		}
		err = c.SaveComments(ctx, pgcomment.Snapshot{Table: strPtr("x")})
		if !errors.Is(err, pgcomment.ErrUnsupportedEntityKind) {
			t.Fatalf("%s: expected ErrUnsupportedEntityKind, got %v", name, err)
		}
	}

	comment, err := db.entity(t, "nope", "public").TableComment(ctx)
	if err != nil || comment != "" {
		t.Fatalf("missing entity must read as empty, got %q, %v", comment, err)
	}
}

func TestIntegration_SchemaScoped(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE SCHEMA a`)
	db.exec(t, `CREATE SCHEMA b`)
	db.exec(t, `CREATE TABLE a.t (id int)`)
	db.exec(t, `CREATE VIEW b.t AS SELECT 1 AS id`)
	db.exec(t, `COMMENT ON TABLE a.t IS 'in a'`)
	db.exec(t, `COMMENT ON VIEW b.t IS 'in b'`)

	for schema, want := range map[string]string{"a": "in a", "b": "in b"} {
		c := db.entity(t, "t", schema)
		got, err := c.TableComment(ctx)
		if err != nil || got != want {
			t.Fatalf("schema %s: got %q, %v", schema, got, err)
		}
	}
	kind, err := db.entity(t, "t", "b").EntityKind(ctx)
	if err != nil || kind != pgcomment.KindView {
		t.Fatalf("expected b.t to be a view, got %s, %v", kind, err)
	}
}

func TestIntegration_ColumnOrdinalsSkipDropped(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE TABLE wide (a int, b int, c int)`)
	db.exec(t, `COMMENT ON COLUMN wide.a IS 'first'`)
	db.exec(t, `COMMENT ON COLUMN wide.c IS 'third'`)
	db.exec(t, `ALTER TABLE wide DROP COLUMN b`)

	c := db.entity(t, "wide", "public")
	got, err := c.ColumnComments(ctx, 1, 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]string{"a": "first", "c": "third"}) {
		t.Fatalf("attnum is not renumbered after a drop: %v", got)
	}
	byName, err := c.ColumnComments(ctx, "c", "missing")
	if err != nil || !reflect.DeepEqual(byName, map[string]string{"c": "third"}) {
		t.Fatalf("unexpected by-name result: %v, %v", byName, err)
	}
}

func TestIntegration_TransactionRollsBackPartialSave(t *testing.T) {
	t.Parallel()
	db := newTestDB(t, defaultConfig())
	ctx := context.Background()
	db.exec(t, `CREATE TABLE orders (id int)`)
	db.exec(t, `COMMENT ON TABLE orders IS 'before'`)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	c, err := pgcomment.New(tx, "orders", "public", testLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = c.SaveComments(ctx, pgcomment.Snapshot{
		Table:   strPtr("after"),
		Columns: map[string]string{"no_such_column": "x"},
	})
	if !errors.Is(err, pgcomment.ErrDatabaseExecution) {
		t.Fatalf("expected ErrDatabaseExecution, got %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	got, err := db.entity(t, "orders", "public").TableComment(ctx)
	if err != nil || got != "before" {
		t.Fatalf("expected rollback to keep the old comment, got %q, %v", got, err)
	}
}

func TestIntegration_ReadOnlyService(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.ReadOnly = true
	db := newTestDB(t, config)
	ctx := context.Background()
	db.exec(t, `CREATE TABLE ro (id int)`)
	db.exec(t, `COMMENT ON TABLE ro IS 'visible'`)

	c := db.entity(t, "ro", "public")
	if got, err := c.TableComment(ctx); err != nil || got != "visible" {
		t.Fatalf("reads must work read-only: %q, %v", got, err)
	}
	if err := c.SetTableComment(ctx, "x"); !errors.Is(err, pgcomment.ErrRejectedStatement) {
		t.Fatalf("expected ErrRejectedStatement, got %v", err)
	}
	if err := db.svc.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
