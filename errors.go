package pgcomment

import (
	"errors"
	"fmt"

	"github.com/rickchristie/pgcomment/internal/protection"
	"github.com/rickchristie/pgcomment/internal/sanitize"
	"github.com/rickchristie/pgcomment/internal/sqltmpl"
)

// Errors returned by Commenter. Match them with errors.Is; every returned
// error carries context around one of these.
var (
	// ErrInvalidIdentifier: a schema, entity or column name failed sanitization.
	ErrInvalidIdentifier = sanitize.ErrInvalidIdentifier
	// ErrInvalidArgumentType: an argument has the wrong type (nil DB handle,
	// selector that is neither a name nor an ordinal, malformed snapshot value).
	ErrInvalidArgumentType = errors.New("invalid argument type")
	// ErrMixedSelectorType: column selectors mix names and ordinals.
	ErrMixedSelectorType = errors.New("column selectors must be all names or all ordinals")
	// ErrTemplateKey: a SQL template references a placeholder with no value.
	// This is a bug in pgcomment, not a caller error.
	ErrTemplateKey = sqltmpl.ErrMissingKey
	// ErrRejectedStatement: a rendered statement did not parse into the
	// expected single SELECT or COMMENT ON, or writes are disabled.
	ErrRejectedStatement = protection.ErrRejected

	ErrUnsupportedEntityKind   = errors.New("unsupported entity kind")
	ErrEmptySnapshot           = errors.New("snapshot has no table or columns entry")
	ErrEmptyColumnMap          = errors.New("snapshot columns entry is empty")
	ErrUnrecognizedSnapshotKey = errors.New("unrecognized snapshot key")

	// ErrDatabaseExecution matches every *ExecError.
	ErrDatabaseExecution = errors.New("database execution failed")
)

// ExecError wraps any failure reported by the database client: connectivity,
// SQL errors, permissions, timeouts. The driver error is available through
// errors.As / Unwrap.
type ExecError struct {
	Op  string // operation that issued the statement, e.g. "table comment"
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("pgcomment: %s: %s: %v", e.Op, ErrDatabaseExecution, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Is reports ErrDatabaseExecution as matching, so callers need not use errors.As.
func (e *ExecError) Is(target error) bool { return target == ErrDatabaseExecution }
