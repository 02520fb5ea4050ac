package pgcomment

// EntityKindOutput is the output of the get_entity_kind tool.
type EntityKindOutput struct {
	Entity   string     `json:"entity"`
	Kind     EntityKind `json:"kind"`
	Writable bool       `json:"writable"`
}

// CommentsOutput is the output of the get_comments tool.
type CommentsOutput struct {
	Entity   string   `json:"entity"`
	Comments Snapshot `json:"comments"`
}

// SaveOutput is the output of the write tools.
type SaveOutput struct {
	Entity       string `json:"entity"`
	TableComment bool   `json:"table_comment"`
	ColumnsSaved int    `json:"columns_saved"`
}
