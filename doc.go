// Package pgcomment reads and writes PostgreSQL comments on tables, views,
// materialized views and their columns.
//
// A [Commenter] is bound to one entity. It reads the entity comment and
// column comments from pg_description, resolves the entity's kind from
// pg_class, and writes comments with COMMENT ON. [Commenter.SaveComments]
// applies a [Snapshot], the portable {"table": ..., "columns": {...}} form
// returned by [Commenter.AllComments], choosing the COMMENT ON verb from the
// entity's kind so a snapshot taken from a view restores onto a view.
//
// Identifiers pass an allow-list and a keyword denylist before they are
// quoted into SQL, comment text is escaped as a literal by pgx, and every
// rendered statement is parsed with pg_query and must be the single SELECT or
// COMMENT ON it was meant to be.
//
// # Library Usage
//
//	pool, err := pgxpool.New(ctx, connString)
//	if err != nil {
//		log.Fatal(err)
//	}
//	c, err := pgcomment.New(pool, "events", "audit", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	snapshot, err := c.AllComments(ctx)
//	...
//	err = other.SaveComments(ctx, snapshot.Compact())
//
// Writes are not atomic across statements. Pass a pgx.Tx as the DB to make a
// SaveComments call all-or-nothing.
//
// # Service
//
// [Open] builds a connection pool with statement timeouts, read-only mode,
// a configurable keyword denylist and command-based before_save hooks.
// [RegisterMCPTools] exposes a Service as MCP tools:
//
//	svc, err := pgcomment.Open(ctx, connString, pgcomment.Config{
//		Pool: pgcomment.PoolConfig{MaxConns: 5},
//		Timeouts: pgcomment.TimeoutConfig{
//			ReadTimeoutSeconds:  10,
//			WriteTimeoutSeconds: 30,
//		},
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//	pgcomment.RegisterMCPTools(mcpServer, svc)
package pgcomment
