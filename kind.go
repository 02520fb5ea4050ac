package pgcomment

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// EntityKind is the structural kind of a catalog relation, from pg_class.relkind.
type EntityKind string

const (
	KindTable            EntityKind = "table"             // r
	KindIndex            EntityKind = "index"             // i
	KindSequence         EntityKind = "sequence"          // S
	KindToast            EntityKind = "toast"             // t
	KindView             EntityKind = "view"              // v
	KindMaterializedView EntityKind = "materialized_view" // m
	KindCompositeType    EntityKind = "composite_type"    // c
	KindForeignTable     EntityKind = "foreign_table"     // f
	KindPartitionedTable EntityKind = "partitioned_table" // p
	KindPartitionedIndex EntityKind = "partitioned_index" // I
	KindUnknown          EntityKind = "unknown"
)

var knownKinds = map[EntityKind]bool{
	KindTable: true, KindIndex: true, KindSequence: true, KindToast: true,
	KindView: true, KindMaterializedView: true, KindCompositeType: true,
	KindForeignTable: true, KindPartitionedTable: true, KindPartitionedIndex: true,
}

func parseKind(s string) EntityKind {
	k := EntityKind(s)
	if knownKinds[k] {
		return k
	}
	return KindUnknown
}

// Writable reports whether entity-level comments can be saved for this kind.
func (k EntityKind) Writable() bool {
	return k == KindTable || k == KindView || k == KindMaterializedView
}

// EntityKind queries the catalog for the entity's kind. An entity that does not
// exist, or that the current role cannot see, resolves to KindUnknown without
// error. The result is never cached: a table can be replaced by a view between calls.
func (c *Commenter) EntityKind(ctx context.Context) (EntityKind, error) {
	sql, err := c.render(checkEntityKindSQL, nil)
	if err != nil {
		return KindUnknown, err
	}

	kind := KindUnknown
	found := false
	err = c.read(ctx, "entity kind", sql, c.entityArgs(), func(rows pgx.Rows) error {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		if !found {
			kind = parseKind(s)
			found = true
		}
		return nil
	})
	if err != nil {
		return KindUnknown, err
	}
	return kind, nil
}
