package pgcomment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Snapshot is the portable form of an entity's comments. Table is the
// entity-level comment and Columns maps column name to comment. A nil field
// is absent: it is neither read into nor written from. An empty Table string
// is a present comment and, when saved, clears the entity's comment.
//
// The JSON form is {"table": "...", "columns": {"name": "..."}}; any other
// top-level key is rejected.
type Snapshot struct {
	Table   *string
	Columns map[string]string
}

// Entry is one top-level part of a Snapshot, either TableEntry or ColumnsEntry.
type Entry interface {
	entry()
}

type TableEntry struct {
	Comment string
}

type ColumnsEntry struct {
	Comments map[string]string
}

func (TableEntry) entry()   {}
func (ColumnsEntry) entry() {}

// Entries returns the present parts in application order: table, then columns.
func (s Snapshot) Entries() []Entry {
	var entries []Entry
	if s.Table != nil {
		entries = append(entries, TableEntry{Comment: *s.Table})
	}
	if s.Columns != nil {
		entries = append(entries, ColumnsEntry{Comments: s.Columns})
	}
	return entries
}

// IsEmpty reports whether neither part is present.
func (s Snapshot) IsEmpty() bool {
	return s.Table == nil && s.Columns == nil
}

// Compact drops a present but empty columns map. AllComments returns one for
// an entity without column comments; saving it as-is fails with ErrEmptyColumnMap.
func (s Snapshot) Compact() Snapshot {
	if s.Columns != nil && len(s.Columns) == 0 {
		s.Columns = nil
	}
	return s
}

// ColumnNames returns the column keys sorted.
func (s Snapshot) ColumnNames() []string {
	names := lo.Keys(s.Columns)
	sort.Strings(names)
	return names
}

type snapshotJSON struct {
	Table   *string            `json:"table,omitempty"`
	Columns *map[string]string `json:"columns,omitempty"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{Table: s.Table}
	if s.Columns != nil {
		out.Columns = &s.Columns
	}
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("pgcomment: %w: snapshot must be a JSON object", ErrInvalidArgumentType)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pgcomment: %w: snapshot must be a JSON object: %v", ErrInvalidArgumentType, err)
	}

	var out Snapshot
	for key, value := range raw {
		switch key {
		case "table":
			var table string
			if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				return fmt.Errorf("pgcomment: %w: \"table\" must be a string, got null", ErrInvalidArgumentType)
			}
			if err := json.Unmarshal(value, &table); err != nil {
				return fmt.Errorf("pgcomment: %w: \"table\" must be a string: %v", ErrInvalidArgumentType, err)
			}
			out.Table = &table
		case "columns":
			var columns map[string]string
			if err := json.Unmarshal(value, &columns); err != nil {
				return fmt.Errorf("pgcomment: %w: \"columns\" must map column names to strings: %v", ErrInvalidArgumentType, err)
			}
			if columns == nil {
				return fmt.Errorf("pgcomment: %w: \"columns\" must be an object, got null", ErrInvalidArgumentType)
			}
			out.Columns = columns
		default:
			return fmt.Errorf("pgcomment: %w %q", ErrUnrecognizedSnapshotKey, key)
		}
	}
	*s = out
	return nil
}

// ParseSnapshot converts a decoded JSON object (for example MCP tool
// arguments) into a Snapshot, applying the same rules as UnmarshalJSON.
func ParseSnapshot(m map[string]any) (Snapshot, error) {
	var out Snapshot
	for key, value := range m {
		switch key {
		case "table":
			table, ok := value.(string)
			if !ok {
				return Snapshot{}, fmt.Errorf("pgcomment: %w: \"table\" must be a string, got %T", ErrInvalidArgumentType, value)
			}
			out.Table = &table
		case "columns":
			obj, ok := value.(map[string]any)
			if !ok {
				return Snapshot{}, fmt.Errorf("pgcomment: %w: \"columns\" must be an object, got %T", ErrInvalidArgumentType, value)
			}
			columns := make(map[string]string, len(obj))
			for name, v := range obj {
				comment, ok := v.(string)
				if !ok {
					return Snapshot{}, fmt.Errorf("pgcomment: %w: comment for column %q must be a string, got %T", ErrInvalidArgumentType, name, v)
				}
				columns[name] = comment
			}
			out.Columns = columns
		default:
			return Snapshot{}, fmt.Errorf("pgcomment: %w %q", ErrUnrecognizedSnapshotKey, key)
		}
	}
	return out, nil
}
