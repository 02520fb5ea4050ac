package protection

import (
	"errors"
	"fmt"
	"regexp"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrRejected is returned when a rendered statement is not the kind of
// statement it was expected to be.
var ErrRejected = errors.New("statement rejected")

// Statement is the statement shape a rendered template must parse into.
type Statement int

const (
	Select Statement = iota
	CommentOnTable
	CommentOnView
	CommentOnMaterializedView
	CommentOnColumn
)

func (s Statement) String() string {
	switch s {
	case Select:
		return "SELECT"
	case CommentOnTable:
		return "COMMENT ON TABLE"
	case CommentOnView:
		return "COMMENT ON VIEW"
	case CommentOnMaterializedView:
		return "COMMENT ON MATERIALIZED VIEW"
	case CommentOnColumn:
		return "COMMENT ON COLUMN"
	}
	return fmt.Sprintf("Statement(%d)", int(s))
}

var commentObjectTypes = map[Statement]pg_query.ObjectType{
	CommentOnTable:            pg_query.ObjectType_OBJECT_TABLE,
	CommentOnView:             pg_query.ObjectType_OBJECT_VIEW,
	CommentOnMaterializedView: pg_query.ObjectType_OBJECT_MATVIEW,
	CommentOnColumn:           pg_query.ObjectType_OBJECT_COLUMN,
}

// Config is the protection checker's own config type.
type Config struct {
	// ReadOnly rejects every COMMENT ON statement.
	ReadOnly bool
}

// Checker validates rendered SQL before it reaches the database.
type Checker struct {
	config Config
}

// NewChecker creates a new Checker with the given config.
func NewChecker(config Config) *Checker {
	return &Checker{config: config}
}

// Named bind markers (@comment, @columns, ...) are not valid SQL on their own.
// NULL parses in every position the templates use them, including COMMENT ... IS.
var bindMarker = regexp.MustCompile(`@[A-Za-z_][A-Za-z0-9_]*`)

// Check parses sql with pg_query_go and verifies it is exactly one statement
// of the wanted shape. Returns nil if allowed, descriptive error if not.
func (c *Checker) Check(sql string, want Statement) error {
	result, err := pg_query.Parse(bindMarker.ReplaceAllString(sql, "NULL"))
	if err != nil {
		return fmt.Errorf("%w: SQL parse error: %v", ErrRejected, err)
	}
	if len(result.Stmts) == 0 {
		return fmt.Errorf("%w: SQL parse error: empty query", ErrRejected)
	}
	if len(result.Stmts) > 1 {
		return fmt.Errorf("%w: multi-statement queries are not allowed: found %d statements", ErrRejected, len(result.Stmts))
	}

	node := result.Stmts[0].Stmt
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		if want != Select {
			return fmt.Errorf("%w: expected %s, got SELECT", ErrRejected, want)
		}
		if n.SelectStmt.IntoClause != nil {
			return fmt.Errorf("%w: SELECT INTO is not allowed: creates a table", ErrRejected)
		}
		if n.SelectStmt.LockingClause != nil {
			return fmt.Errorf("%w: SELECT ... FOR UPDATE/SHARE is not allowed on catalog reads", ErrRejected)
		}
		if n.SelectStmt.WithClause != nil {
			return fmt.Errorf("%w: WITH clauses are not allowed in catalog reads", ErrRejected)
		}
		return nil

	case *pg_query.Node_CommentStmt:
		objType, ok := commentObjectTypes[want]
		if !ok {
			return fmt.Errorf("%w: expected %s, got COMMENT ON", ErrRejected, want)
		}
		if c.config.ReadOnly {
			return fmt.Errorf("%w: COMMENT ON is not allowed in read-only mode", ErrRejected)
		}
		if n.CommentStmt.Objtype != objType {
			return fmt.Errorf("%w: expected %s, got COMMENT ON %s", ErrRejected, want, n.CommentStmt.Objtype)
		}
		return nil
	}
	return fmt.Errorf("%w: expected %s, got %T", ErrRejected, want, node.Node)
}
