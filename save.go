package pgcomment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SaveComments applies a snapshot: the entity comment (if present) with the
// COMMENT ON verb matching the entity's kind, then the column comments (if
// present). The whole snapshot is validated first: an empty snapshot, an empty
// columns map, an invalid column name or an entity that is not a table, view
// or materialized view fails before any comment is written.
//
// Writes after validation are not atomic on their own. Build the Commenter on
// a pgx.Tx to make a partial failure roll back.
func (c *Commenter) SaveComments(ctx context.Context, snapshot Snapshot) error {
	if err := c.validateSnapshot(snapshot); err != nil {
		return err
	}

	kind, err := c.EntityKind(ctx)
	if err != nil {
		return err
	}
	target, ok := kindTargets[kind]
	if !ok {
		return fmt.Errorf("pgcomment: %w: %s is %s", ErrUnsupportedEntityKind, c.ref, kind)
	}

	for _, entry := range snapshot.Entries() {
		switch e := entry.(type) {
		case TableEntry:
			if err := c.setEntityComment(ctx, target, e.Comment); err != nil {
				return err
			}
		case ColumnsEntry:
			if err := c.SetColumnComments(ctx, e.Comments); err != nil {
				return err
			}
		}
	}

	c.logger.Info().
		Str("kind", string(kind)).
		Bool("table", snapshot.Table != nil).
		Int("columns", len(snapshot.Columns)).
		Msg("snapshot saved")
	return nil
}

// validateSnapshot runs the checks that need no database access.
func (c *Commenter) validateSnapshot(snapshot Snapshot) error {
	if snapshot.IsEmpty() {
		return fmt.Errorf("pgcomment: %w", ErrEmptySnapshot)
	}
	if snapshot.Columns != nil && len(snapshot.Columns) == 0 {
		return fmt.Errorf("pgcomment: %w", ErrEmptyColumnMap)
	}
	if err := c.sanitizer.Identifiers(snapshot.ColumnNames()); err != nil {
		return fmt.Errorf("pgcomment: column name: %w", err)
	}
	return nil
}

// SaveCommentsJSON decodes a JSON snapshot and saves it.
func (c *Commenter) SaveCommentsJSON(ctx context.Context, data []byte) error {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		if errors.Is(err, ErrUnrecognizedSnapshotKey) || errors.Is(err, ErrInvalidArgumentType) {
			return err
		}
		return fmt.Errorf("pgcomment: %w: snapshot is not valid JSON: %v", ErrInvalidArgumentType, err)
	}
	return c.SaveComments(ctx, snapshot)
}
