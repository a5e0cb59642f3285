// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz retrieval tools for LLM integration via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/docservice"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("BM25 search over the indexed corpus. Returns ranked passages with scores."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("build_context",
		mcp.WithDescription("Assemble top-ranked passages into a single context block "+
			"suitable for prompt injection, bounded by a character budget."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query to retrieve context for")),
		mcp.WithNumber("max_chars", mcp.Description("Character budget for the assembled context (default 4000)")),
	), s.buildContext)

	s.mcp.AddTool(mcp.NewTool("index_text",
		mcp.WithDescription("Index a raw text document under a display name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name for the document")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text content to index")),
	), s.indexText)

	s.mcp.AddTool(mcp.NewTool("index_file",
		mcp.WithDescription("Index one file from the ingest root. The path is relative "+
			"to the root and the extension must be on the indexable allow-list."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. docs/readme.md)")),
	), s.indexFile)

	s.mcp.AddTool(mcp.NewTool("index_directory",
		mcp.WithDescription("Index every indexable file under a directory in the ingest root."),
		mcp.WithString("path", mcp.Description("Relative directory path (empty for the whole root)")),
	), s.indexDirectory)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List all indexed sources with chunk counts."),
	), s.listSources)

	s.mcp.AddTool(mcp.NewTool("delete_source",
		mcp.WithDescription("Delete an indexed source and all its chunks by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Source id as returned by list_sources")),
	), s.deleteSource)

	s.mcp.AddTool(mcp.NewTool("corpus_stats",
		mcp.WithDescription("Summary statistics for the indexed corpus."),
	), s.corpusStats)

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

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 0)
	results := s.svc.Search(ctx, query, limit)
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) buildContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxChars := req.GetInt("max_chars", 0)
	out := s.svc.BuildContext(ctx, query, maxChars)
	if out == "" {
		return mcp.NewToolResultText("no relevant context found"), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) indexText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src := s.svc.IndexText(ctx, name, content)
	return mcp.NewToolResultText(fmt.Sprintf("indexed %q: %d chunks", src.Name, src.ChunkCount)), nil
}

func (s *Server) indexFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := s.svc.IndexFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("indexed %q: %d chunks", src.Name, src.ChunkCount)), nil
}

func (s *Server) indexDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if p, err := req.RequireString("path"); err == nil {
		path = p
	}
	indexed, err := s.svc.IndexDirectory(ctx, path, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(indexed) == 0 {
		return mcp.NewToolResultText("no indexable files found"), nil
	}
	var lines []string
	for _, src := range indexed {
		lines = append(lines, fmt.Sprintf("%s (%d chunks)", src.Origin, src.ChunkCount))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources := s.svc.ListSources(ctx)
	if len(sources) == 0 {
		return mcp.NewToolResultText("no sources indexed"), nil
	}
	out, _ := json.MarshalIndent(sources, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.DeleteSource(ctx, id) {
		return mcp.NewToolResultError(fmt.Sprintf("source not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) corpusStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Stats(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
