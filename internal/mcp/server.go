// Package mcp serves the declaration model over the Model Context Protocol
// on stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/cxxmodel/internal/project"
)

const (
	serverName    = "cxxmodel-mcp-server"
	serverVersion = "0.1.0"

	defaultSuggestions = 5
	defaultMaxResults  = 200
)

// Server answers declaration queries against a built project.
type Server struct {
	server           *mcp.Server
	project          *project.Project
	root             string
	diagnosticLogger *DiagnosticLogger
}

// NewServer registers the query tools for p. Relative file paths in tool
// arguments are taken relative to root. A nil logger writes to a file.
func NewServer(p *project.Project, root string, logger *DiagnosticLogger) *Server {
	if logger == nil {
		logger = NewDiagnosticLogger()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
		project:          p,
		root:             root,
		diagnosticLogger: logger,
	}
	s.registerTools()
	logger.Printf("MCP server initialized for %s", root)
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "lookup_declaration",
		Description: "Find the declarations registered under a C/C++ qualified name such as ns::Class::method. When nothing matches, similar registered names are suggested.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {
					Type:        "string",
					Description: "Qualified name, e.g. geo::Vector or geo::Vector::length",
				},
				"kind": {
					Type:        "string",
					Description: "Only return declarations of this kind, e.g. class, method, function",
				},
				"suggestions": {
					Type:        "integer",
					Description: "Maximum number of similar names to suggest when nothing matches",
				},
			},
			Required: []string{"name"},
		},
	}, s.handleLookupDeclaration)

	s.server.AddTool(&mcp.Tool{
		Name:        "file_declarations",
		Description: "List the declarations built from one source file in source order.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File path, absolute or relative to the project root",
				},
				"kind": {
					Type:        "string",
					Description: "Only return declarations of this kind",
				},
				"max": {
					Type:        "integer",
					Description: "Maximum number of declarations to return",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleFileDeclarations)
}

// recoverFromPanic turns a panicking handler into an error result.
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticLogger.Errorf("panic in %s: %v\n%s", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err = handler()
	if err != nil {
		s.diagnosticLogger.Errorf("%s: %v", operation, err)
		return createErrorResponse(operation, err)
	}
	return result, nil
}

// Start serves on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown flushes the diagnostic log.
func (s *Server) Shutdown() error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	return s.diagnosticLogger.Close()
}
