package pgcomment

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

type fakeColumn struct {
	attnum  int32
	name    string
	comment string
}

type recordedCall struct {
	SQL  string
	Args []any
}

// fakeDB answers the three catalog reads from in-memory state and records
// every statement. It applies the @columns filter the way the catalog would.
type fakeDB struct {
	mu sync.Mutex

	kind         string // "" means the entity does not exist
	tableComment *string
	columns      []fakeColumn

	queryErr   error
	execErr    error
	failExecAt int // 1-based; 0 never fails

	queries []recordedCall
	execs   []recordedCall
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, recordedCall{SQL: sql, Args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var named pgx.NamedArgs
	if len(args) > 0 {
		named, _ = args[0].(pgx.NamedArgs)
	}

	switch {
	case strings.Contains(sql, "relkind"):
		if f.kind == "" {
			return &fakeRows{}, nil
		}
		return &fakeRows{values: [][]any{{f.kind}}}, nil
	case strings.Contains(sql, "a.attname"):
		var values [][]any
		for _, col := range f.columns {
			if selected(named["columns"], col) {
				values = append(values, []any{col.name, col.comment})
			}
		}
		return &fakeRows{values: values}, nil
	case strings.Contains(sql, "d.description"):
		if f.tableComment == nil {
			return &fakeRows{}, nil
		}
		return &fakeRows{values: [][]any{{*f.tableComment}}}, nil
	}
	return nil, fmt.Errorf("fakeDB: unexpected query %q", sql)
}

func selected(filter any, col fakeColumn) bool {
	switch f := filter.(type) {
	case nil:
		return true
	case []string:
		for _, name := range f {
			if name == col.name {
				return true
			}
		}
	case []int32:
		for _, n := range f {
			if n == col.attnum {
				return true
			}
		}
	}
	return false
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, recordedCall{SQL: sql, Args: args})
	if f.execErr != nil && (f.failExecAt == 0 || f.failExecAt == len(f.execs)) {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("COMMENT"), nil
}

func (f *fakeDB) execSQL() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.execs))
	for i, c := range f.execs {
		out[i] = c.SQL
	}
	return out
}

// execComment returns the @comment value bound to the i-th Exec.
func (f *fakeDB) execComment(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, arg := range f.execs[i].Args {
		if named, ok := arg.(pgx.NamedArgs); ok {
			s, _ := named["comment"].(string)
			return s
		}
	}
	return ""
}

func (f *fakeDB) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries) + len(f.execs)
}

type fakeRows struct {
	values [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("fakeRows: scan %d values into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("fakeRows: unsupported scan target %T", d)
		}
		*p = row[i].(string)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func newTestCommenter(t *testing.T, db DB, name, schema string) *Commenter {
	t.Helper()
	c, err := New(db, name, schema, testLogger())
	if err != nil {
		t.Fatalf("New(%q, %q): %v", name, schema, err)
	}
	return c
}
