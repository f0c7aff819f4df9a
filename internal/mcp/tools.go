package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joacominatel/floatgate/internal/database"
	"github.com/joacominatel/floatgate/internal/gateway"
)

func (s *Server) handleListTools() *ListToolsResult {
	return &ListToolsResult{
		Tools: []Tool{
			{
				Name:        "run_query",
				Description: "Execute a read-only SQL query (single SELECT or WITH statement) and return rows as JSON",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"sql": {
							Type:        "string",
							Description: "The SQL query to execute. Only SELECT and WITH (CTE) statements are allowed.",
						},
					},
					Required: []string{"sql"},
				},
			},
			{
				Name:        "list_tables",
				Description: "List all table names in the public schema",
				InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
			},
			{
				Name:        "get_schema",
				Description: "Get column and constraint metadata for one table",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"table_name": {
							Type:        "string",
							Description: "Table name (letters, digits and underscores only)",
						},
					},
					Required: []string{"table_name"},
				},
			},
			{
				Name:        "get_indexes",
				Description: "Get index metadata for one table",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"table_name": {
							Type:        "string",
							Description: "Table name (letters, digits and underscores only)",
						},
					},
					Required: []string{"table_name"},
				},
			},
			{
				Name:        "describe_database",
				Description: "Summarize the whole database: every table with its column count",
				InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
			},
			{
				Name:        "ensure_connection",
				Description: "Open or verify the database connection",
				InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
			},
			{
				Name:        "cleanup",
				Description: "Close the database connection",
				InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
			},
		},
	}
}

func (s *Server) handleCallTool(ctx context.Context, reqID string, params json.RawMessage) (*CallToolResult, *RPCError) {
	var callParams CallToolParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{
			Code:    CodeInvalidParams,
			Message: "invalid parameters",
			Data:    err.Error(),
		}
	}

	s.logger.Info("tool call", "request_id", reqID, "tool", callParams.Name)

	switch callParams.Name {
	case "run_query":
		return s.callRunQuery(ctx, callParams.Arguments)
	case "list_tables":
		return s.callListTables(ctx)
	case "get_schema":
		return s.callGetSchema(ctx, callParams.Arguments)
	case "get_indexes":
		return s.callGetIndexes(ctx, callParams.Arguments)
	case "describe_database":
		return s.callDescribeDatabase(ctx)
	case "ensure_connection":
		return s.callEnsureConnection(ctx)
	case "cleanup":
		s.tools.Cleanup()
		return textResult("connection closed"), nil
	default:
		return nil, &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("unknown tool: %s", callParams.Name),
		}
	}
}

func (s *Server) callRunQuery(ctx context.Context, args map[string]any) (*CallToolResult, *RPCError) {
	sqlText, ok := args["sql"].(string)
	if !ok || sqlText == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing or invalid 'sql' parameter"}
	}

	result, err := s.tools.RunQuery(ctx, sqlText)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(renderQueryResult(result))
}

func (s *Server) callListTables(ctx context.Context) (*CallToolResult, *RPCError) {
	list, err := s.tools.ListTables(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(list)
}

func (s *Server) callGetSchema(ctx context.Context, args map[string]any) (*CallToolResult, *RPCError) {
	table, ok := args["table_name"].(string)
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing or invalid 'table_name' parameter"}
	}

	schema, err := s.tools.GetSchema(ctx, table)
	if err != nil {
		var notFound *gateway.ErrNotFound
		if errors.As(err, &notFound) {
			return jsonResult(map[string]string{"error": notFound.Error()})
		}
		return errorResult(err), nil
	}
	return jsonResult(schema)
}

func (s *Server) callGetIndexes(ctx context.Context, args map[string]any) (*CallToolResult, *RPCError) {
	table, ok := args["table_name"].(string)
	if !ok {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing or invalid 'table_name' parameter"}
	}

	info, err := s.tools.GetIndexes(ctx, table)
	if err != nil {
		var notFound *gateway.ErrNotFound
		if errors.As(err, &notFound) {
			return jsonResult(map[string]string{"error": notFound.Error()})
		}
		return errorResult(err), nil
	}
	return jsonResult(info)
}

func (s *Server) callDescribeDatabase(ctx context.Context) (*CallToolResult, *RPCError) {
	structure, err := s.tools.DescribeDatabase(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(structure)
}

func (s *Server) callEnsureConnection(ctx context.Context) (*CallToolResult, *RPCError) {
	if err := s.tools.EnsureConnection(ctx); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("connected to database %q", s.tools.DatabaseName())), nil
}

// queryResultPayload is the wire shape of run_query: rows become objects
// keyed by column name, in statement projection order.
type queryResultPayload struct {
	Columns   []string                    `json:"columns"`
	Rows      []map[string]database.Value `json:"rows"`
	RowCount  int                         `json:"row_count"`
	Truncated bool                        `json:"truncated,omitempty"`
}

func renderQueryResult(result *database.QueryResult) *queryResultPayload {
	rows := make([]map[string]database.Value, len(result.Rows))
	for i, row := range result.Rows {
		m := make(map[string]database.Value, len(result.Columns))
		for j, col := range result.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		rows[i] = m
	}
	return &queryResultPayload{
		Columns:   result.Columns,
		Rows:      rows,
		RowCount:  result.RowCount,
		Truncated: result.Truncated,
	}
}

func jsonResult(payload any) (*CallToolResult, *RPCError) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, &RPCError{
			Code:    CodeInternalError,
			Message: "failed to marshal result",
			Data:    err.Error(),
		}
	}
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: string(data)}},
	}, nil
}

func textResult(text string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// errorResult renders a typed gateway failure as tool output the agent can
// read and recover from, keeping the taxonomy visible in the message.
func errorResult(err error) *CallToolResult {
	return &CallToolResult{
		Content: []Content{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}
