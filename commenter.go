package pgcomment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/rickchristie/pgcomment/internal/protection"
	"github.com/rickchristie/pgcomment/internal/sanitize"
	"github.com/rickchristie/pgcomment/internal/sqltmpl"
)

// DefaultSchema is used when an entity is addressed without a schema.
const DefaultSchema = "public"

// DB is the database handle a Commenter talks through. *pgxpool.Pool,
// *pgx.Conn and pgx.Tx all satisfy it; running a Commenter on a pgx.Tx makes
// its writes part of the caller's transaction.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EntityRef identifies a relation by schema and name. Both parts have passed
// sanitization by the time an EntityRef exists.
type EntityRef struct {
	Schema string
	Name   string
}

func (r EntityRef) String() string {
	return r.Schema + "." + r.Name
}

// Commenter reads and writes the comments of one entity and its columns.
// It holds no transaction of its own; every operation issues its statements
// on the DB it was built with. Safe for concurrent use if the DB is.
type Commenter struct {
	db        DB
	ref       EntityRef
	sanitizer *sanitize.Sanitizer
	guard     *protection.Checker
	logger    zerolog.Logger
}

// New validates name and schema and binds them to db. An empty schema means
// DefaultSchema. Returns ErrInvalidArgumentType if db is nil and
// ErrInvalidIdentifier if either name fails sanitization.
func New(db DB, name, schema string, logger zerolog.Logger) (*Commenter, error) {
	return newCommenter(db, name, schema, logger, sanitize.NewSanitizer(nil), protection.NewChecker(protection.Config{}))
}

func newCommenter(db DB, name, schema string, logger zerolog.Logger, sanitizer *sanitize.Sanitizer, guard *protection.Checker) (*Commenter, error) {
	if isNilDB(db) {
		return nil, fmt.Errorf("pgcomment: %w: database handle is nil", ErrInvalidArgumentType)
	}
	if schema == "" {
		schema = DefaultSchema
	}
	if _, err := sanitizer.Identifier(name); err != nil {
		return nil, fmt.Errorf("pgcomment: entity name: %w", err)
	}
	if _, err := sanitizer.Identifier(schema); err != nil {
		return nil, fmt.Errorf("pgcomment: schema: %w", err)
	}
	ref := EntityRef{Schema: schema, Name: name}
	return &Commenter{
		db:        db,
		ref:       ref,
		sanitizer: sanitizer,
		guard:     guard,
		logger:    logger.With().Str("entity", ref.String()).Logger(),
	}, nil
}

func isNilDB(db DB) bool {
	switch v := db.(type) {
	case nil:
		return true
	case *pgxpool.Pool:
		return v == nil
	case *pgx.Conn:
		return v == nil
	}
	return false
}

// Ref returns the entity this Commenter is bound to.
func (c *Commenter) Ref() EntityRef { return c.ref }

func (c *Commenter) String() string {
	return fmt.Sprintf("Commenter(schema: %s, name_table: %s)", c.ref.Schema, c.ref.Name)
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// render fills tmpl. name_entity always comes from the bound EntityRef and
// overrides any caller-supplied value. Unused values are ignored.
func (c *Commenter) render(tmpl string, values map[string]string) (string, error) {
	vals := make(map[string]string, len(values)+1)
	for k, v := range values {
		vals[k] = v
	}
	vals["name_entity"] = quoteIdent(c.ref.Name)
	sql, err := sqltmpl.Render(tmpl, vals)
	if err != nil {
		return "", fmt.Errorf("pgcomment: %w", err)
	}
	return sql, nil
}

func (c *Commenter) entityArgs() pgx.NamedArgs {
	return pgx.NamedArgs{"name_entity": c.ref.Name, "schema": c.ref.Schema}
}

// read runs one catalog SELECT and hands each row to scan.
func (c *Commenter) read(ctx context.Context, op, sql string, args pgx.NamedArgs, scan func(rows pgx.Rows) error) error {
	if err := c.guard.Check(sql, protection.Select); err != nil {
		return fmt.Errorf("pgcomment: %s: %w", op, err)
	}

	start := time.Now()
	rows, err := c.db.Query(ctx, sql, args)
	if err != nil {
		return &ExecError{Op: op, SQL: sql, Err: err}
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		if err := scan(rows); err != nil {
			return &ExecError{Op: op, SQL: sql, Err: err}
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return &ExecError{Op: op, SQL: sql, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Int("rows", count).
		Dur("duration", time.Since(start)).
		Msg("catalog read executed")
	return nil
}

// write runs one COMMENT ON statement. COMMENT ON takes no server-side
// parameters, so the comment is escaped into the statement as a literal by
// pgx's simple protocol.
func (c *Commenter) write(ctx context.Context, op, sql string, want protection.Statement, comment string) error {
	if err := c.guard.Check(sql, want); err != nil {
		return fmt.Errorf("pgcomment: %s: %w", op, err)
	}

	start := time.Now()
	if _, err := c.db.Exec(ctx, sql, pgx.QueryExecModeSimpleProtocol, pgx.NamedArgs{"comment": comment}); err != nil {
		return &ExecError{Op: op, SQL: sql, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Str("statement", want.String()).
		Dur("duration", time.Since(start)).
		Msg("comment statement executed")
	return nil
}
