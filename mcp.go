package pgcomment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the comment tools on the given MCP server.
// The write tools are left out when the service is read-only.
func RegisterMCPTools(mcpServer *server.MCPServer, svc *Service) {
	entityOptions := func(opts ...mcp.ToolOption) []mcp.ToolOption {
		return append([]mcp.ToolOption{
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table, view or materialized view"),
			),
			mcp.WithString("schema",
				mcp.Description(fmt.Sprintf("The schema name (defaults to '%s')", svc.config.DefaultSchema)),
			),
		}, opts...)
	}

	// get_entity_kind
	kindTool := mcp.NewTool("get_entity_kind", entityOptions(
		mcp.WithDescription("Look up what kind of relation an entity is (table, view, materialized_view, index, ...). Returns 'unknown' when it does not exist."),
		mcp.WithReadOnlyHintAnnotation(true),
	)...)
	mcpServer.AddTool(kindTool, svc.loggedToolHandler("get_entity_kind", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := svc.entityFromRequest("get_entity_kind", req)
		if errResult != nil {
			return errResult, nil
		}
		kind, err := c.EntityKind(ctx)
		if err != nil {
			return svc.toolError("get_entity_kind", err), nil
		}
		return jsonResult(EntityKindOutput{Entity: c.Ref().String(), Kind: kind, Writable: kind.Writable()})
	}))

	// get_comments
	getTool := mcp.NewTool("get_comments", entityOptions(
		mcp.WithDescription("Read the entity comment and column comments. Returns {\"table\": ..., \"columns\": {name: comment}}; uncommented columns are omitted."),
		mcp.WithString("scope",
			mcp.Description("What to read: 'all' (default), 'table' or 'columns'"),
			mcp.Enum("all", "table", "columns"),
		),
		mcp.WithArray("columns",
			mcp.Description("Restrict column comments to these column names, or to these 1-based column positions. Do not mix names and positions."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)...)
	mcpServer.AddTool(getTool, svc.loggedToolHandler("get_comments", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, errResult := svc.entityFromRequest("get_comments", req)
		if errResult != nil {
			return errResult, nil
		}
		var selectors []any
		if raw, ok := req.GetArguments()["columns"]; ok && raw != nil {
			if selectors, ok = raw.([]any); !ok {
				return svc.toolError("get_comments", fmt.Errorf("pgcomment: %w: columns must be an array, got %T", ErrInvalidArgumentType, raw)), nil
			}
		}
		scope := req.GetString("scope", "")
		if scope == "" {
			scope = "all"
			if len(selectors) > 0 {
				scope = "columns"
			}
		}

		var snapshot Snapshot
		var err error
		switch scope {
		case "table":
			snapshot, err = c.TableCommentSnapshot(ctx)
		case "columns":
			snapshot, err = c.ColumnCommentsSnapshot(ctx, jsonSelectors(selectors)...)
		case "all":
			if len(selectors) > 0 {
				return mcp.NewToolResultError("columns can only be used with scope 'columns'"), nil
			}
			snapshot, err = c.AllComments(ctx)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown scope %q", scope)), nil
		}
		if err != nil {
			return svc.toolError("get_comments", err), nil
		}
		return jsonResult(CommentsOutput{Entity: c.Ref().String(), Comments: snapshot})
	}))

	if svc.config.ReadOnly {
		return
	}

	// set_comment
	setTool := mcp.NewTool("set_comment", entityOptions(
		mcp.WithDescription("Set the comment on a table, view or materialized view. The COMMENT ON verb is chosen from the catalog. An empty comment removes it."),
		mcp.WithString("comment",
			mcp.Required(),
			mcp.Description("The comment text"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)...)
	mcpServer.AddTool(setTool, svc.loggedToolHandler("set_comment", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		comment, err := req.RequireString("comment")
		if err != nil {
			return mcp.NewToolResultError("comment parameter is required"), nil
		}
		return svc.saveFromRequest(ctx, "set_comment", req, Snapshot{Table: &comment})
	}))

	// set_column_comments
	setColumnsTool := mcp.NewTool("set_column_comments", entityOptions(
		mcp.WithDescription("Set comments on columns of a table, view or materialized view. Keys are column names. An empty comment removes it."),
		mcp.WithObject("comments",
			mcp.Required(),
			mcp.Description("Object mapping column name to comment text"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)...)
	mcpServer.AddTool(setColumnsTool, svc.loggedToolHandler("set_column_comments", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		comments, ok := req.GetArguments()["comments"]
		if !ok {
			return mcp.NewToolResultError("comments parameter is required"), nil
		}
		snapshot, err := ParseSnapshot(map[string]any{"columns": comments})
		if err != nil {
			return svc.toolError("set_column_comments", err), nil
		}
		return svc.saveFromRequest(ctx, "set_column_comments", req, snapshot)
	}))

	// save_comments
	saveTool := mcp.NewTool("save_comments", entityOptions(
		mcp.WithDescription("Apply a comment snapshot as returned by get_comments: {\"table\": ..., \"columns\": {name: comment}}. Either key may be omitted. Validated entirely before anything is written."),
		mcp.WithObject("snapshot",
			mcp.Required(),
			mcp.Description("The snapshot to apply"),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)...)
	mcpServer.AddTool(saveTool, svc.loggedToolHandler("save_comments", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["snapshot"].(map[string]any)
		if !ok {
			return mcp.NewToolResultError("snapshot parameter is required and must be an object"), nil
		}
		snapshot, err := ParseSnapshot(raw)
		if err != nil {
			return svc.toolError("save_comments", err), nil
		}
		return svc.saveFromRequest(ctx, "save_comments", req, snapshot)
	}))
}

func (s *Service) entityFromRequest(tool string, req mcp.CallToolRequest) (*Commenter, *mcp.CallToolResult) {
	table, err := req.RequireString("table")
	if err != nil {
		return nil, mcp.NewToolResultError("table parameter is required")
	}
	c, err := s.Entity(table, req.GetString("schema", ""))
	if err != nil {
		return nil, s.toolError(tool, err)
	}
	return c, nil
}

func (s *Service) saveFromRequest(ctx context.Context, tool string, req mcp.CallToolRequest, snapshot Snapshot) (*mcp.CallToolResult, error) {
	c, errResult := s.entityFromRequest(tool, req)
	if errResult != nil {
		return errResult, nil
	}
	ref := c.Ref()
	if err := s.Save(ctx, ref.Name, ref.Schema, snapshot); err != nil {
		return s.toolError(tool, err), nil
	}
	return jsonResult(SaveOutput{
		Entity:       ref.String(),
		TableComment: snapshot.Table != nil,
		ColumnsSaved: len(snapshot.Columns),
	})
}

// toolError logs err and returns it to the agent with matching error prompts.
func (s *Service) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Error().Err(err).Str("tool", tool).Msg("tool call failed")
	return mcp.NewToolResultError(s.Annotate(err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// jsonSelectors turns JSON numbers into ints so they are read as column
// positions. Anything else is passed through for ColumnComments to validate.
func jsonSelectors(raw []any) []any {
	out := make([]any, len(raw))
	for i, v := range raw {
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			out[i] = int64(f)
			continue
		}
		out[i] = v
	}
	return out
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (s *Service) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		s.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
