package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/project"
)

// DeclarationView is the client-facing form of a declaration.
type DeclarationView struct {
	QualifiedName string   `json:"qualified_name"`
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	UID           string   `json:"uid"`
	File          string   `json:"file,omitempty"`
	Position      string   `json:"position,omitempty"`
	Length        int      `json:"length"`
	Scope         string   `json:"scope,omitempty"`
	Visibility    string   `json:"visibility,omitempty"`
	Flags         []string `json:"flags,omitempty"`
	Type          string   `json:"type,omitempty"`
	Include       string   `json:"include,omitempty"`
}

// NewDeclarationView resolves the file, position and scope of d against p.
func NewDeclarationView(ctx context.Context, p *project.Project, d *model.Declaration) DeclarationView {
	v := DeclarationView{
		QualifiedName: d.QualifiedName,
		Name:          d.Name,
		Kind:          d.Kind.String(),
		UID:           d.UID().String(),
		Length:        d.Span().Len(),
		Flags:         d.Flags.Names(),
	}
	if d.Visibility != model.VisibilityNone {
		v.Visibility = d.Visibility.String()
	}
	if fi, ok := p.FileByID(d.File); ok {
		v.File = fi.Path
		v.Position = fi.Lines().Position(d.Start).String()
	}
	if scope := d.ScopeDecl(ctx); scope != nil {
		v.Scope = scope.QualifiedName
	}
	if t := d.DeclaredType(); t != nil {
		v.Type = t.Text()
	}
	if inc, ok := d.Data.(*model.IncludeData); ok {
		v.Include = inc.Path
	}
	return v
}

type lookupParams struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Suggestions int    `json:"suggestions,omitempty"`
}

type suggestionView struct {
	QualifiedName string  `json:"qualified_name"`
	Score         float64 `json:"score"`
}

type lookupResponse struct {
	Name         string            `json:"name"`
	Count        int               `json:"count"`
	Declarations []DeclarationView `json:"declarations"`
	Suggestions  []suggestionView  `json:"suggestions,omitempty"`
}

type fileParams struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
	Max  int    `json:"max,omitempty"`
}

type fileResponse struct {
	File         string            `json:"file"`
	Total        int               `json:"total"`
	Truncated    bool              `json:"truncated,omitempty"`
	Declarations []DeclarationView `json:"declarations"`
}

var errNoMatch = errors.New("no declaration registered under that name")

func (s *Server) handleLookupDeclaration(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("lookup_declaration", func() (*mcp.CallToolResult, error) {
		var params lookupParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		params.Name = strings.TrimSpace(params.Name)
		if params.Name == "" {
			return nil, errors.New("name is required")
		}

		resp := lookupResponse{Name: params.Name, Declarations: []DeclarationView{}}
		for _, d := range s.project.FindDeclarations(ctx, params.Name) {
			if matchesKind(d, params.Kind) {
				resp.Declarations = append(resp.Declarations, NewDeclarationView(ctx, s.project, d))
			}
		}
		resp.Count = len(resp.Declarations)
		if resp.Count > 0 {
			return createJSONResponse(resp)
		}

		limit := params.Suggestions
		if limit <= 0 {
			limit = defaultSuggestions
		}
		for _, sg := range s.project.Suggest(params.Name, limit) {
			resp.Suggestions = append(resp.Suggestions, suggestionView{QualifiedName: sg.QualifiedName, Score: sg.Score})
		}
		s.diagnosticLogger.Printf("lookup %q: no match, %d suggestions", params.Name, len(resp.Suggestions))
		return createErrorResponseWith("lookup_declaration", fmt.Errorf("%w: %s", errNoMatch, params.Name), map[string]interface{}{
			"suggestions": resp.Suggestions,
		})
	})
}

func (s *Server) handleFileDeclarations(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("file_declarations", func() (*mcp.CallToolResult, error) {
		var params fileParams
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		if params.Path == "" {
			return nil, errors.New("path is required")
		}
		path := params.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.root, path)
		}
		fi, ok := s.project.Lookup(filepath.Clean(path))
		if !ok {
			return nil, fmt.Errorf("file not indexed: %s", params.Path)
		}

		limit := params.Max
		if limit <= 0 {
			limit = defaultMaxResults
		}
		resp := fileResponse{File: fi.Path, Declarations: []DeclarationView{}}
		for _, d := range fi.Declarations() {
			if !matchesKind(d, params.Kind) {
				continue
			}
			resp.Total++
			if len(resp.Declarations) < limit {
				resp.Declarations = append(resp.Declarations, NewDeclarationView(ctx, s.project, d))
			}
		}
		resp.Truncated = resp.Total > len(resp.Declarations)
		return createJSONResponse(resp)
	})
}

func matchesKind(d *model.Declaration, kind string) bool {
	return kind == "" || strings.EqualFold(d.Kind.String(), kind)
}
