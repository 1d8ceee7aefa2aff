// Package mcpserver exposes the plan and generation pipeline as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/pipeline"
)

const contractURI = "ansuz://template-format"

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
	)

	s.mcp.AddTool(mcp.NewTool("create_plan",
		mcp.WithDescription("Read a source note and ask the model for a plan of atomic notes. "+
			"Writes the plan note (with a Checklist section) to the plans folder and returns its path. "+
			"Nothing is written when the model's answer cannot be parsed; the raw answer is returned instead."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Vault-relative path of the source note (e.g. Inbox/idea.md)")),
	), s.createPlan)

	s.mcp.AddTool(mcp.NewTool("generate_notes",
		mcp.WithDescription("Generate one note per checklist item of a plan, one at a time. "+
			"Failed items are reported and skipped; existing notes are left alone unless overwrite is configured."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("Vault-relative path of the plan note")),
	), s.generateNotes)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List usable templates with their note type and placeholders."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. Notes/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_template_contract",
		mcp.WithDescription("Returns the template placeholder and plan checklist format. "+
			"Call this before writing templates or editing plans."),
	), s.getTemplateContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Template & Plan Format",
			mcp.WithResourceDescription("How templates, placeholders and plan checklists are written."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// transcript forwards progress as MCP log notifications and keeps a copy for
// the tool result.
type transcript struct {
	ctx   context.Context
	srv   *server.MCPServer
	mu    sync.Mutex
	lines []string
}

func (t *transcript) Report(msg string) {
	t.mu.Lock()
	t.lines = append(t.lines, msg)
	t.mu.Unlock()
	// No session outside a live stdio connection; the transcript still has it.
	_ = t.srv.SendNotificationToClient(t.ctx, "notifications/message", map[string]any{
		"level":  "info",
		"logger": "ansuz",
		"data":   msg,
	})
}

func (t *transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

func (s *Server) newTranscript(ctx context.Context) *transcript {
	return &transcript{ctx: ctx, srv: s.mcp}
}

var _ pipeline.Reporter = (*transcript)(nil)

func resultJSON(v any, log string) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if log == "" {
		return mcp.NewToolResultText(string(out))
	}
	return mcp.NewToolResultText(string(out) + "\n\nProgress:\n" + log)
}

func (s *Server) createPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tr := s.newTranscript(ctx)
	res, err := s.svc.CreatePlan(ctx, source, tr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(res, tr.String()), nil
}

func (s *Server) generateNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planPath, err := req.RequireString("plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tr := s.newTranscript(ctx)
	sum, err := s.svc.GenerateNotes(ctx, planPath, tr)
	if err != nil {
		if sum != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%v (partial: %s)", err, sum)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(sum, tr.String()), nil
}

func (s *Server) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Templates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no templates found"), nil
	}
	return resultJSON(list, ""), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(results, ""), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.ReadNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) getTemplateContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TemplateFormatContract), nil
}

func (s *Server) readContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     TemplateFormatContract,
		},
	}, nil
}
