// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the MOC renderer to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kenaz-moc/internal/apperr"
	"github.com/starford/kenaz-moc/internal/index"
	"github.com/starford/kenaz-moc/internal/mocservice"
	"github.com/starford/kenaz-moc/internal/storage"
)

const formatResourceURI = "moc://output-format"

// Server wraps the MCP server with the MOC tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *mocservice.Service
	store     storage.Provider
	db        *index.DB
	assetsDir string
}

// New creates a new MCP server with all tools registered. Covers saved
// through the save_cover tool go to assetsDir.
func New(svc *mocservice.Service, store storage.Provider, db *index.DB, assetsDir string) *Server {
	s := &Server{svc: svc, store: store, db: db, assetsDir: assetsDir}

	s.mcp = server.NewMCPServer(
		"Kenaz MOC",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("render_moc",
		mcp.WithDescription("Render the Map of Content as Markdown without writing it."),
		mcp.WithString("folders", mcp.Description("Comma-separated folder prefixes (empty for the configured folders)")),
	), s.renderMOC)

	s.mcp.AddTool(mcp.NewTool("publish_moc",
		mcp.WithDescription("Render the configured folders and write the MOC note if it changed."),
	), s.publishMOC)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the notes of a folder as they appear in the MOC, newest first."),
		mcp.WithString("folder", mcp.Description("Folder prefix (empty for the whole vault)")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a wiki-link name to a vault file and list the notes linking to it."),
		mcp.WithString("link", mcp.Required(), mcp.Description("Link name, e.g. Programming or [[Programming|label]]")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the frontmatter contract the MOC renderer reads. "+
			"Call this before editing notes that should appear in the MOC."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("save_cover",
		mcp.WithDescription("Store an image in the vault for use as a cover or comment embed. "+
			"Returns the cover value and an embed snippet."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data URI of a png, jpg, webp or svg image")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.saveCover)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "MOC Note Format",
			mcp.WithResourceDescription("Frontmatter read by the MOC renderer and the shape of its output."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// Listen serves MCP requests read from in until ctx is cancelled or in is
// exhausted. Transport errors are logged to logger.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) renderMOC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var folders []string
	for _, f := range strings.Split(req.GetString("folders", ""), ",") {
		if f = strings.TrimSpace(f); f != "" {
			folders = append(folders, f)
		}
	}
	res, err := s.svc.Render(ctx, folders)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Markdown), nil
}

func (s *Server) publishMOC(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Publish(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res.Markdown = ""
	return jsonResult(res)
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.svc.Pages(ctx, req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pages)
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("link")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := s.svc.Resolve(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("unresolved: " + name), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(target)
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
