// Package api exposes the file catalog to MCP clients over stdio.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/storage"
)

// MCPRetriever abstracts semantic search for the MCP layer.
type MCPRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.ScoredFile, error)
}

// MCPCatalog abstracts the catalog lookups the MCP tools need.
type MCPCatalog interface {
	GetFileByPath(path string) (storage.FileRecord, error)
	ListRuns(limit int) ([]storage.Run, error)
	ListFilesForRun(runID string) ([]storage.FileRecord, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Catalog   MCPCatalog
	Retriever MCPRetriever
}

// NewMCPServer creates an MCP server with all shelf tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"shelf",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("shelf — semantic catalog of locally organized files. Search by meaning, inspect descriptions, review past runs."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_files",
			mcp.WithDescription("Semantically search the catalog of organized files and return the best matches."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearchFiles(deps),
	)

	s.AddTool(
		mcp.NewTool("describe_file",
			mcp.WithDescription("Return the stored description and topic for an organized file path."),
			mcp.WithString("path", mcp.Description("Organized or original file path"), mcp.Required()),
		),
		mcpDescribeFile(deps),
	)

	s.AddTool(
		mcp.NewTool("list_runs",
			mcp.WithDescription("List past organize runs with their counters and status."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 10)")),
		),
		mcpListRuns(deps),
	)

	return s
}

func mcpSearchFiles(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		matches, err := deps.Retriever.Retrieve(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(matches) == 0 {
			return mcpText("[]"), nil
		}

		type fileResult struct {
			Path        string  `json:"path"`
			Topic       string  `json:"topic"`
			Description string  `json:"description"`
			Score       float32 `json:"score"`
		}

		results := make([]fileResult, len(matches))
		for i, m := range matches {
			results[i] = fileResult{
				Path:        m.NewPath,
				Topic:       m.Topic,
				Description: truncateRunes(m.Description, 200),
				Score:       m.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpDescribeFile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		rec, err := deps.Catalog.GetFileByPath(path)
		if err == storage.ErrNotFound {
			return mcpError(fmt.Sprintf("no catalog entry for %s", path)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]string{
			"source_path": rec.SourcePath,
			"new_path":    rec.NewPath,
			"format":      rec.Format,
			"topic":       rec.Topic,
			"description": rec.Description,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal entry: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpListRuns(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}

		runs, err := deps.Catalog.ListRuns(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing runs failed: %v", err)), nil
		}

		type runSummary struct {
			ID             string `json:"id"`
			SourceDir      string `json:"source_dir"`
			DestDir        string `json:"dest_dir"`
			Status         string `json:"status"`
			FilesScanned   int    `json:"files_scanned"`
			FilesOrganized int    `json:"files_organized"`
			StartedAt      string `json:"started_at"`
		}

		summaries := make([]runSummary, len(runs))
		for i, r := range runs {
			summaries[i] = runSummary{
				ID:             r.ID,
				SourceDir:      r.SourceDir,
				DestDir:        r.DestDir,
				Status:         r.Status,
				FilesScanned:   r.FilesScanned,
				FilesOrganized: r.FilesOrganized,
				StartedAt:      r.StartedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
