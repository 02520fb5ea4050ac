package pgcomment

// SQL templates. {placeholders} are filled by render with already-quoted
// identifiers; @names are bind values rewritten by pgx.NamedArgs. The entity
// and schema names in catalog reads are always bound, never interpolated.

const checkEntityKindSQL = `SELECT
    CASE c.relkind
        WHEN 'r' THEN 'table'
        WHEN 'i' THEN 'index'
        WHEN 'S' THEN 'sequence'
        WHEN 't' THEN 'toast'
        WHEN 'v' THEN 'view'
        WHEN 'm' THEN 'materialized_view'
        WHEN 'c' THEN 'composite_type'
        WHEN 'f' THEN 'foreign_table'
        WHEN 'p' THEN 'partitioned_table'
        WHEN 'I' THEN 'partitioned_index'
        ELSE 'unknown'
    END AS kind
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = @name_entity
  AND n.nspname = @schema`

const getTableCommentSQL = `SELECT d.description
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_description d
    ON d.objoid = c.oid
   AND d.classoid = 'pg_catalog.pg_class'::regclass
   AND d.objsubid = 0
WHERE c.relname = @name_entity
  AND n.nspname = @schema`

const columnCommentsSQL = `SELECT a.attname, d.description
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_description d
    ON d.objoid = c.oid
   AND d.classoid = 'pg_catalog.pg_class'::regclass
   AND d.objsubid > 0
JOIN pg_catalog.pg_attribute a
    ON a.attrelid = c.oid
   AND a.attnum = d.objsubid
WHERE c.relname = @name_entity
  AND n.nspname = @schema
  AND NOT a.attisdropped`

const columnCommentsOrder = `
ORDER BY a.attnum`

const (
	getAllColumnCommentsSQL     = columnCommentsSQL + columnCommentsOrder
	getColumnCommentsByIndexSQL = columnCommentsSQL + `
  AND d.objsubid = ANY(@columns)` + columnCommentsOrder
	getColumnCommentsByNameSQL = columnCommentsSQL + `
  AND a.attname = ANY(@columns)` + columnCommentsOrder
)

// {entity_type} is one of TABLE, VIEW, MATERIALIZED VIEW.
const saveEntityCommentSQL = `COMMENT ON {entity_type} {schema}.{name_entity} IS @comment`

const saveColumnCommentSQL = `COMMENT ON COLUMN {schema}.{name_entity}.{name_column} IS @comment`
