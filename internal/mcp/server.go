// Package mcp exposes the gateway's operations as tools over a stdio
// JSON-RPC (MCP) transport. stdout carries protocol frames only; all
// logging goes to stderr via slog.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joacominatel/floatgate/internal/database"
	"github.com/joacominatel/floatgate/internal/gateway"
)

// Toolset is what the server needs from the gateway. *gateway.Gateway
// satisfies it; tests substitute a fake.
type Toolset interface {
	EnsureConnection(ctx context.Context) error
	Cleanup()
	RunQuery(ctx context.Context, sqlText string) (*database.QueryResult, error)
	ListTables(ctx context.Context) (*gateway.TableList, error)
	GetSchema(ctx context.Context, table string) (*database.TableSchema, error)
	GetIndexes(ctx context.Context, table string) (*database.IndexInfo, error)
	DescribeDatabase(ctx context.Context) (*database.DatabaseStructure, error)
	DatabaseName() string
}

// Server handles the MCP protocol over a line-delimited JSON stream.
type Server struct {
	tools  Toolset
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	initialized bool
}

// NewServer creates a server over stdin/stdout. A nil logger discards logs.
func NewServer(tools Toolset, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		tools:  tools,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// NewServerWithIO creates a server over arbitrary streams, used in tests.
func NewServerWithIO(tools Toolset, logger *slog.Logger, in io.Reader, out io.Writer) *Server {
	s := NewServer(tools, logger)
	s.in = in
	s.out = out
	return s
}

// Run reads line-delimited requests until EOF or context cancellation.
// Each request is handled synchronously; responses are written in request
// order.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if response := s.handleMessage(ctx, []byte(line)); response != nil {
			if err := s.writeResponse(response); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func (s *Server) writeResponse(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return nil
	}
	if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) handleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      nil,
			Error:   &RPCError{Code: CodeParseError, Message: "parse error", Data: err.Error()},
		}
	}

	if req.JSONRPC != "2.0" {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: CodeInvalidRequest, Message: "invalid JSON-RPC version"},
		}
	}

	return s.handleRequest(ctx, &req)
}

func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	reqID := uuid.NewString()
	s.logger.Debug("request", "request_id", reqID, "method", req.Method)

	var result any
	var rpcErr *RPCError

	switch req.Method {
	case "initialize":
		result, rpcErr = s.handleInitialize(req.Params)
	case "initialized", "notifications/initialized":
		// Notification, no response.
		return nil
	case "tools/list":
		if rpcErr = s.requireInitialized(); rpcErr == nil {
			result = s.handleListTools()
		}
	case "tools/call":
		if rpcErr = s.requireInitialized(); rpcErr == nil {
			result, rpcErr = s.handleCallTool(ctx, reqID, req.Params)
		}
	case "ping":
		result = map[string]any{}
	default:
		rpcErr = &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}

	if rpcErr != nil {
		s.logger.Warn("request failed", "request_id", reqID, "method", req.Method, "code", rpcErr.Code)
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	}
}

// requireInitialized rejects tool traffic sent before the initialize
// handshake completed.
func (s *Server) requireInitialized() *RPCError {
	if s.initialized {
		return nil
	}
	return &RPCError{
		Code:    CodeInvalidRequest,
		Message: "server not initialized: send initialize first",
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (*InitializeResult, *RPCError) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &RPCError{
				Code:    CodeInvalidParams,
				Message: "invalid initialize parameters",
				Data:    err.Error(),
			}
		}
	}

	s.initialized = true
	s.logger.Info("client initialized",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
	)

	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}, nil
}
