package pgcomment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickchristie/pgcomment/internal/protection"
	"github.com/rickchristie/pgcomment/internal/sanitize"
)

func TestNew_NilDB(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, "events", "audit", testLogger()); !errors.Is(err, ErrInvalidArgumentType) {
		t.Fatalf("expected ErrInvalidArgumentType for nil db, got %v", err)
	}
	var pool *pgxpool.Pool
	if _, err := New(pool, "events", "audit", testLogger()); !errors.Is(err, ErrInvalidArgumentType) {
		t.Fatalf("expected ErrInvalidArgumentType for typed nil pool, got %v", err)
	}
}

func TestNew_InvalidIdentifiers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, schema string
	}{
		{"users; DROP TABLE x", "public"},
		{"events", "bad schema"},
		{"", "public"},
		{"drop_me", "public"},
		{"events", "audit--"},
	}
	for _, tc := range cases {
		db := &fakeDB{}
		_, err := New(db, tc.name, tc.schema, testLogger())
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("New(%q, %q): expected ErrInvalidIdentifier, got %v", tc.name, tc.schema, err)
		}
		if db.callCount() != 0 {
			t.Errorf("New(%q, %q): expected no database calls", tc.name, tc.schema)
		}
	}
}

func TestNew_DefaultSchema(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "")
	if got := c.Ref(); got != (EntityRef{Schema: "public", Name: "events"}) {
		t.Fatalf("unexpected ref: %+v", got)
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "audit")
	if got := c.String(); got != "Commenter(schema: audit, name_table: events)" {
		t.Fatalf("unexpected String(): %q", got)
	}
}

func TestRender_IgnoresExtraValues(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "audit")
	sql, err := c.render(saveEntityCommentSQL, map[string]string{
		"entity_type":  "TABLE",
		"schema":       quoteIdent("audit"),
		"extra_unused": "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != `COMMENT ON TABLE "audit"."events" IS @comment` {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestRender_EntityNameCannotBeOverridden(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "audit")
	sql, err := c.render(saveEntityCommentSQL, map[string]string{
		"entity_type": "TABLE",
		"schema":      quoteIdent("audit"),
		"name_entity": "other",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, `"events"`) || strings.Contains(sql, "other") {
		t.Fatalf("expected bound entity name, got %s", sql)
	}
}

func TestRender_MissingKey(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "audit")
	_, err := c.render(saveColumnCommentSQL, map[string]string{"schema": quoteIdent("audit")})
	if !errors.Is(err, ErrTemplateKey) {
		t.Fatalf("expected ErrTemplateKey, got %v", err)
	}
	if !strings.Contains(err.Error(), "name_column") {
		t.Fatalf("expected missing key to be named, got %v", err)
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"events":     `"events"`,
		"Mixed-Case": `"Mixed-Case"`,
		"a.b":        `"a.b"`,
		"1":          `"1"`,
	}
	for in, want := range cases {
		if got := quoteIdent(in); got != want {
			t.Errorf("quoteIdent(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTemplatesPassGuard(t *testing.T) {
	t.Parallel()
	c := newTestCommenter(t, &fakeDB{}, "events", "audit")
	guard := protection.NewChecker(protection.Config{})

	reads := []string{checkEntityKindSQL, getTableCommentSQL, getAllColumnCommentsSQL, getColumnCommentsByIndexSQL, getColumnCommentsByNameSQL}
	for _, tmpl := range reads {
		sql, err := c.render(tmpl, nil)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if err := guard.Check(sql, protection.Select); err != nil {
			t.Errorf("read template rejected: %v\n%s", err, sql)
		}
	}

	for _, target := range []commentTarget{targetTable, targetView, targetMaterializedView} {
		sql, err := c.render(saveEntityCommentSQL, map[string]string{"entity_type": target.keyword, "schema": quoteIdent("audit")})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if err := guard.Check(sql, target.statement); err != nil {
			t.Errorf("%s rejected: %v", target.keyword, err)
		}
	}

	sql, err := c.render(saveColumnCommentSQL, map[string]string{"schema": quoteIdent("audit"), "name_column": quoteIdent("id")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := guard.Check(sql, protection.CommentOnColumn); err != nil {
		t.Errorf("column template rejected: %v", err)
	}
}

func TestEntityKind(t *testing.T) {
	t.Parallel()
	cases := map[string]EntityKind{
		"table":             KindTable,
		"index":             KindIndex,
		"sequence":          KindSequence,
		"toast":             KindToast,
		"view":              KindView,
		"materialized_view": KindMaterializedView,
		"composite_type":    KindCompositeType,
		"foreign_table":     KindForeignTable,
		"partitioned_table": KindPartitionedTable,
		"partitioned_index": KindPartitionedIndex,
		"unknown":           KindUnknown,
		"something_else":    KindUnknown,
		"":                  KindUnknown, // no row
	}
	for raw, want := range cases {
		c := newTestCommenter(t, &fakeDB{kind: raw}, "events", "audit")
		got, err := c.EntityKind(context.Background())
		if err != nil {
			t.Fatalf("kind %q: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Errorf("kind %q: got %s, want %s", raw, got, want)
		}
	}
}

func TestEntityKind_BindsNameAndSchema(t *testing.T) {
	t.Parallel()
	db := &fakeDB{kind: "table"}
	c := newTestCommenter(t, db, "events", "audit")
	if _, err := c.EntityKind(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := db.queries[0].Args[0].(pgx.NamedArgs)
	if args["name_entity"] != "events" || args["schema"] != "audit" {
		t.Fatalf("unexpected bind values: %v", args)
	}
	if strings.Contains(db.queries[0].SQL, "events") {
		t.Fatalf("entity name must be bound, not interpolated: %s", db.queries[0].SQL)
	}
}

func TestEntityKind_NotCached(t *testing.T) {
	t.Parallel()
	db := &fakeDB{kind: "table"}
	c := newTestCommenter(t, db, "events", "audit")
	if k, _ := c.EntityKind(context.Background()); k != KindTable {
		t.Fatalf("expected table, got %s", k)
	}
	db.kind = "view"
	if k, _ := c.EntityKind(context.Background()); k != KindView {
		t.Fatalf("expected view after replacement, got %s", k)
	}
}

func TestWritable(t *testing.T) {
	t.Parallel()
	for _, k := range []EntityKind{KindTable, KindView, KindMaterializedView} {
		if !k.Writable() {
			t.Errorf("%s should be writable", k)
		}
	}
	for _, k := range []EntityKind{KindIndex, KindSequence, KindForeignTable, KindPartitionedTable, KindUnknown} {
		if k.Writable() {
			t.Errorf("%s should not be writable", k)
		}
	}
}

func TestQueryError(t *testing.T) {
	t.Parallel()
	driverErr := errors.New("connection refused")
	c := newTestCommenter(t, &fakeDB{queryErr: driverErr}, "events", "audit")

	_, err := c.TableComment(context.Background())
	if !errors.Is(err, ErrDatabaseExecution) {
		t.Fatalf("expected ErrDatabaseExecution, got %v", err)
	}
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected driver error to be wrapped, got %v", err)
	}
	var execErr *ExecError
	if !errors.As(err, &execErr) || execErr.Op != "table comment" || execErr.SQL == "" {
		t.Fatalf("expected *ExecError with op and SQL, got %#v", err)
	}
}

func TestReadOnlyGuardRejectsWrites(t *testing.T) {
	t.Parallel()
	db := &fakeDB{kind: "table"}
	c, err := newCommenter(db, "events", "audit", testLogger(), sanitize.NewSanitizer(nil), protection.NewChecker(protection.Config{ReadOnly: true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.SetTableComment(context.Background(), "x"); !errors.Is(err, ErrRejectedStatement) {
		t.Fatalf("expected ErrRejectedStatement, got %v", err)
	}
	if len(db.execs) != 0 {
		t.Fatalf("expected no exec, got %d", len(db.execs))
	}
	if _, err := c.AllComments(context.Background()); err != nil {
		t.Fatalf("reads must still work in read-only mode: %v", err)
	}
}

func TestExtraDeniedKeywords(t *testing.T) {
	t.Parallel()
	_, err := newCommenter(&fakeDB{}, "tmp_grant_log", "public", testLogger(), sanitize.NewSanitizer([]string{"grant"}), protection.NewChecker(protection.Config{}))
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}
