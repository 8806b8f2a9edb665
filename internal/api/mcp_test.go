package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/storage"
)

// --- mocks ---

type mockMCPRetriever struct {
	matches []retrieval.ScoredFile
	err     error
}

func (m *mockMCPRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retrieval.ScoredFile, error) {
	return m.matches, m.err
}

type mockCatalog struct {
	files map[string]storage.FileRecord
	runs  []storage.Run
}

func (m *mockCatalog) GetFileByPath(path string) (storage.FileRecord, error) {
	if f, ok := m.files[path]; ok {
		return f, nil
	}
	return storage.FileRecord{}, storage.ErrNotFound
}

func (m *mockCatalog) ListRuns(limit int) ([]storage.Run, error) {
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[:limit], nil
}

func (m *mockCatalog) ListFilesForRun(runID string) ([]storage.FileRecord, error) {
	var out []storage.FileRecord
	for _, f := range m.files {
		if f.RunID == runID {
			out = append(out, f)
		}
	}
	return out, nil
}

// --- helpers ---

func newTestMCPDeps() MCPDeps {
	return MCPDeps{
		Catalog:   &mockCatalog{files: make(map[string]storage.FileRecord)},
		Retriever: &mockMCPRetriever{},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestMCPTool_SearchFiles(t *testing.T) {
	deps := newTestMCPDeps()
	deps.Retriever = &mockMCPRetriever{
		matches: []retrieval.ScoredFile{
			{ID: "f1", NewPath: "/org/finance/budget.pdf", Topic: "finance", Description: "annual budget", Score: 0.95},
			{ID: "f2", NewPath: "/org/finance/taxes.pdf", Topic: "finance", Description: "tax filings", Score: 0.8},
		},
	}
	handler := mcpSearchFiles(deps)

	req := makeCallToolRequest("search_files", map[string]interface{}{
		"query": "budget documents",
		"limit": 5,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	var results []struct {
		Path  string  `json:"path"`
		Topic string  `json:"topic"`
		Score float32 `json:"score"`
	}
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Path != "/org/finance/budget.pdf" {
		t.Fatalf("unexpected first path: %s", results[0].Path)
	}
}

func TestMCPTool_SearchFiles_EmptyResult(t *testing.T) {
	deps := newTestMCPDeps()
	handler := mcpSearchFiles(deps)

	req := makeCallToolRequest("search_files", map[string]interface{}{
		"query": "nonexistent topic",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if text := toolText(t, result); text != "[]" {
		t.Fatalf("expected empty array, got: %s", text)
	}
}

func TestMCPTool_SearchFiles_MissingQuery(t *testing.T) {
	deps := newTestMCPDeps()
	handler := mcpSearchFiles(deps)

	result, err := handler(context.Background(), makeCallToolRequest("search_files", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing query")
	}
}

func TestMCPTool_SearchFiles_RetrieverError(t *testing.T) {
	deps := newTestMCPDeps()
	deps.Retriever = &mockMCPRetriever{err: errors.New("embed failed")}
	handler := mcpSearchFiles(deps)

	result, err := handler(context.Background(), makeCallToolRequest("search_files", map[string]interface{}{
		"query": "test",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_DescribeFile(t *testing.T) {
	deps := newTestMCPDeps()
	deps.Catalog = &mockCatalog{files: map[string]storage.FileRecord{
		"/org/notes/meeting.txt": {
			ID:          "f1",
			SourcePath:  "/inbox/m.txt",
			NewPath:     "/org/notes/meeting.txt",
			Format:      "text",
			Topic:       "notes",
			Description: "meeting notes from March",
		},
	}}
	handler := mcpDescribeFile(deps)

	req := makeCallToolRequest("describe_file", map[string]interface{}{
		"path": "/org/notes/meeting.txt",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var entry map[string]string
	if err := json.Unmarshal([]byte(toolText(t, result)), &entry); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if entry["topic"] != "notes" {
		t.Fatalf("topic = %q, want notes", entry["topic"])
	}
	if entry["description"] != "meeting notes from March" {
		t.Fatalf("unexpected description: %s", entry["description"])
	}
}

func TestMCPTool_DescribeFile_NotFound(t *testing.T) {
	deps := newTestMCPDeps()
	handler := mcpDescribeFile(deps)

	result, err := handler(context.Background(), makeCallToolRequest("describe_file", map[string]interface{}{
		"path": "/nowhere",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for unknown path")
	}
}

func TestMCPTool_ListRuns(t *testing.T) {
	deps := newTestMCPDeps()
	deps.Catalog = &mockCatalog{runs: []storage.Run{
		{ID: "r1", SourceDir: "/inbox", DestDir: "/org", Status: "completed", FilesScanned: 4, FilesOrganized: 3, StartedAt: time.Now().UTC()},
		{ID: "r2", SourceDir: "/inbox", DestDir: "/org", Status: "failed", StartedAt: time.Now().UTC()},
	}}
	handler := mcpListRuns(deps)

	result, err := handler(context.Background(), makeCallToolRequest("list_runs", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var runs []struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		FilesOrganized int    `json:"files_organized"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &runs); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "r1" || runs[0].FilesOrganized != 3 {
		t.Fatalf("unexpected first run: %+v", runs[0])
	}
}

func TestNewMCPServer(t *testing.T) {
	s := NewMCPServer(newTestMCPDeps())
	if s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
