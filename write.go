package pgcomment

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/rickchristie/pgcomment/internal/protection"
)

// commentTarget pairs the COMMENT ON object keyword with the statement shape
// the guard expects for it.
type commentTarget struct {
	keyword   string
	statement protection.Statement
}

var (
	targetTable            = commentTarget{"TABLE", protection.CommentOnTable}
	targetView             = commentTarget{"VIEW", protection.CommentOnView}
	targetMaterializedView = commentTarget{"MATERIALIZED VIEW", protection.CommentOnMaterializedView}
)

var kindTargets = map[EntityKind]commentTarget{
	KindTable:            targetTable,
	KindView:             targetView,
	KindMaterializedView: targetMaterializedView,
}

// SetTableComment sets the entity comment with COMMENT ON TABLE. The verb is
// not checked against the catalog; use SaveComments for kind dispatch. An
// empty comment removes the existing one.
func (c *Commenter) SetTableComment(ctx context.Context, comment string) error {
	return c.setEntityComment(ctx, targetTable, comment)
}

// SetViewComment sets the entity comment with COMMENT ON VIEW.
func (c *Commenter) SetViewComment(ctx context.Context, comment string) error {
	return c.setEntityComment(ctx, targetView, comment)
}

// SetMaterializedViewComment sets the entity comment with COMMENT ON MATERIALIZED VIEW.
func (c *Commenter) SetMaterializedViewComment(ctx context.Context, comment string) error {
	return c.setEntityComment(ctx, targetMaterializedView, comment)
}

func (c *Commenter) setEntityComment(ctx context.Context, target commentTarget, comment string) error {
	sql, err := c.render(saveEntityCommentSQL, map[string]string{
		"entity_type": target.keyword,
		"schema":      quoteIdent(c.ref.Schema),
	})
	if err != nil {
		return err
	}
	if err := c.write(ctx, "set entity comment", sql, target.statement, comment); err != nil {
		return err
	}
	c.logger.Info().
		Str("object", target.keyword).
		Int("comment_length", len(comment)).
		Msg("entity comment saved")
	return nil
}

// SetColumnComments sets one COMMENT ON COLUMN per entry, in column name
// order. Every name is sanitized before the first statement runs, so an
// invalid name writes nothing. Execution stops at the first failing column;
// columns written before it are not rolled back unless the DB is a transaction.
func (c *Commenter) SetColumnComments(ctx context.Context, comments map[string]string) error {
	names := lo.Keys(comments)
	sort.Strings(names)
	if err := c.sanitizer.Identifiers(names); err != nil {
		return fmt.Errorf("pgcomment: column name: %w", err)
	}

	schema := quoteIdent(c.ref.Schema)
	for _, name := range names {
		sql, err := c.render(saveColumnCommentSQL, map[string]string{
			"schema":      schema,
			"name_column": quoteIdent(name),
		})
		if err != nil {
			return err
		}
		if err := c.write(ctx, "set column comment", sql, protection.CommentOnColumn, comments[name]); err != nil {
			return err
		}
	}

	if len(names) > 0 {
		c.logger.Info().
			Int("columns", len(names)).
			Msg("column comments saved")
	}
	return nil
}
