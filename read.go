package pgcomment

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// TableComment returns the entity-level comment, or "" when the entity has no
// comment or does not exist.
func (c *Commenter) TableComment(ctx context.Context) (string, error) {
	sql, err := c.render(getTableCommentSQL, nil)
	if err != nil {
		return "", err
	}

	var comment string
	found := false
	err = c.read(ctx, "table comment", sql, c.entityArgs(), func(rows pgx.Rows) error {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		if !found {
			comment, found = s, true
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return comment, nil
}

// TableCommentSnapshot returns the entity-level comment as {"table": comment}.
func (c *Commenter) TableCommentSnapshot(ctx context.Context) (Snapshot, error) {
	comment, err := c.TableComment(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Table: &comment}, nil
}

// ColumnComments returns column name to comment for commented columns.
// With no selectors every commented column is returned. Selectors are either
// all column names (string) or all 1-based ordinal positions (any integer
// type); mixing them returns ErrMixedSelectorType and any other type returns
// ErrInvalidArgumentType. Both are reported before any query runs. Selected
// columns that do not exist or have no comment are omitted.
func (c *Commenter) ColumnComments(ctx context.Context, selectors ...any) (map[string]string, error) {
	names, ordinals, err := splitSelectors(selectors)
	if err != nil {
		return nil, err
	}
	switch {
	case names != nil:
		return c.columnComments(ctx, getColumnCommentsByNameSQL, names)
	case ordinals != nil:
		return c.columnComments(ctx, getColumnCommentsByIndexSQL, ordinals)
	}
	return c.columnComments(ctx, getAllColumnCommentsSQL, nil)
}

// ColumnCommentsByName is ColumnComments restricted to name selectors.
func (c *Commenter) ColumnCommentsByName(ctx context.Context, names ...string) (map[string]string, error) {
	if len(names) == 0 {
		return c.columnComments(ctx, getAllColumnCommentsSQL, nil)
	}
	return c.columnComments(ctx, getColumnCommentsByNameSQL, names)
}

// ColumnCommentsByIndex is ColumnComments restricted to ordinal selectors.
func (c *Commenter) ColumnCommentsByIndex(ctx context.Context, ordinals ...int) (map[string]string, error) {
	if len(ordinals) == 0 {
		return c.columnComments(ctx, getAllColumnCommentsSQL, nil)
	}
	selectors := make([]any, len(ordinals))
	for i, o := range ordinals {
		selectors[i] = o
	}
	_, converted, err := splitSelectors(selectors)
	if err != nil {
		return nil, err
	}
	return c.columnComments(ctx, getColumnCommentsByIndexSQL, converted)
}

// ColumnCommentsSnapshot wraps ColumnComments as {"columns": mapping}.
func (c *Commenter) ColumnCommentsSnapshot(ctx context.Context, selectors ...any) (Snapshot, error) {
	columns, err := c.ColumnComments(ctx, selectors...)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Columns: columns}, nil
}

// AllComments returns both the entity comment and every column comment. The
// two reads are separate statements; wrap the DB in a transaction for a
// consistent view.
func (c *Commenter) AllComments(ctx context.Context) (Snapshot, error) {
	table, err := c.TableComment(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	columns, err := c.ColumnComments(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Table: &table, Columns: columns}, nil
}

func (c *Commenter) columnComments(ctx context.Context, tmpl string, selected any) (map[string]string, error) {
	sql, err := c.render(tmpl, nil)
	if err != nil {
		return nil, err
	}

	args := c.entityArgs()
	if selected != nil {
		args["columns"] = selected
	}

	comments := make(map[string]string)
	err = c.read(ctx, "column comments", sql, args, func(rows pgx.Rows) error {
		var name, comment string
		if err := rows.Scan(&name, &comment); err != nil {
			return err
		}
		comments[name] = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// splitSelectors classifies selectors by the type of the first element and
// requires the rest to match. Returns (nil, nil, nil) for no selectors.
func splitSelectors(selectors []any) ([]string, []int32, error) {
	if len(selectors) == 0 {
		return nil, nil, nil
	}

	var names []string
	var ordinals []int32
	for i, sel := range selectors {
		if name, ok := sel.(string); ok {
			if ordinals != nil {
				return nil, nil, fmt.Errorf("pgcomment: %w: selector %d is a name after ordinals", ErrMixedSelectorType, i)
			}
			names = append(names, name)
			continue
		}

		ordinal, ok, err := toOrdinal(sel)
		if err != nil {
			return nil, nil, fmt.Errorf("pgcomment: %w: selector %d: %v", ErrInvalidArgumentType, i, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("pgcomment: %w: selector %d has type %T, want string or integer", ErrInvalidArgumentType, i, sel)
		}
		if names != nil {
			return nil, nil, fmt.Errorf("pgcomment: %w: selector %d is an ordinal after names", ErrMixedSelectorType, i)
		}
		ordinals = append(ordinals, ordinal)
	}
	return names, ordinals, nil
}

// toOrdinal converts any Go integer to the int4 attnum domain.
func toOrdinal(v any) (int32, bool, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt32 {
			return 0, true, fmt.Errorf("ordinal %d out of range", x)
		}
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, true, fmt.Errorf("ordinal %d out of range", x)
		}
		n = int64(x)
	default:
		return 0, false, nil
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, true, fmt.Errorf("ordinal %d out of range", n)
	}
	return int32(n), true, nil
}
