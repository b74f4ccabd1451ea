// Package agent exposes a workspace as a set of MCP tools over stdio.
// A code-generation agent drives the session through these tools:
// editing files, snapshotting checkpoints, and rolling back.
package agent

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/atelier/internal/export"
	"github.com/agentic-research/atelier/internal/workspace"
)

// Server wires workspace operations into an MCP tool server.
type Server struct {
	ws  *workspace.Workspace
	mcp *server.MCPServer
}

// NewServer builds the MCP server and registers the workspace tools.
func NewServer(ws *workspace.Workspace, version string) *Server {
	s := &Server{
		ws:  ws,
		mcp: server.NewMCPServer("atelier", version),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file in the workspace. Returns syntax diagnostics if the content does not parse."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute workspace path, e.g. /src/app.tsx")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full file content")),
	), s.handleWriteFile)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a file's content from the workspace."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute workspace path")),
	), s.handleReadFile)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List files under a directory, recursively."),
		mcp.WithString("path", mcp.Description("Directory to list, defaults to /")),
	), s.handleListFiles)

	s.mcp.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete a file from the workspace."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute workspace path")),
	), s.handleDeleteFile)

	s.mcp.AddTool(mcp.NewTool("snapshot",
		mcp.WithDescription("Capture an immutable checkpoint of every file in the workspace."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Human-readable label, e.g. the user message that triggered this turn")),
	), s.handleSnapshot)

	s.mcp.AddTool(mcp.NewTool("list_checkpoints",
		mcp.WithDescription("List checkpoint history, oldest first."),
	), s.handleListCheckpoints)

	s.mcp.AddTool(mcp.NewTool("diff_checkpoints",
		mcp.WithDescription("Compute a line-level diff between two checkpoints."),
		mcp.WithString("old_id", mcp.Required(), mcp.Description("Baseline checkpoint id")),
		mcp.WithString("new_id", mcp.Required(), mcp.Description("Target checkpoint id")),
	), s.handleDiffCheckpoints)

	s.mcp.AddTool(mcp.NewTool("restore_checkpoint",
		mcp.WithDescription("Preview a restore: diff the live workspace against a checkpoint and enter the confirming state. Nothing changes until confirm_restore."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Checkpoint id to restore")),
	), s.handleRestoreCheckpoint)

	s.mcp.AddTool(mcp.NewTool("confirm_restore",
		mcp.WithDescription("Apply the pending restore, replacing the live workspace with the checkpoint contents."),
	), s.handleConfirmRestore)

	s.mcp.AddTool(mcp.NewTool("cancel_restore",
		mcp.WithDescription("Abandon the pending restore, leaving the workspace untouched."),
	), s.handleCancelRestore)
}

// --- handlers ---

func (s *Server) handleWriteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.ws.WriteFile(path, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write %s: %v", path, err)), nil
	}

	doc := map[string]any{"path": path, "ok": true}
	if diags := s.ws.Diagnostics(path); len(diags) > 0 {
		var msgs []any
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		doc["diagnostics"] = msgs
	}
	return jsonResult(doc)
}

func (s *Server) handleReadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.ws.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) handleListFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "/")

	var entries []any
	for p, content := range s.ws.FS().AllFiles() {
		if !underDir(p, path) {
			continue
		}
		f, err := s.ws.FS().GetFile(p)
		if err != nil {
			continue
		}
		entries = append(entries, map[string]any{
			"path":     p,
			"language": f.Language,
			"size":     int64(len(content)),
		})
	}
	return jsonResult(map[string]any{"files": entries})
}

func (s *Server) handleDeleteFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ws.DeleteFile(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete %s: %v", path, err)), nil
	}
	return jsonResult(map[string]any{"path": path, "ok": true})
}

func (s *Server) handleSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cp := s.ws.Snapshot(label)
	rec := export.RecordFromCheckpoint(cp)
	return jsonResult(map[string]any{
		"id":          rec.ID,
		"timestamp":   rec.Timestamp,
		"label":       rec.Label,
		"description": rec.Description,
	})
}

func (s *Server) handleListCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var entries []any
	for _, cp := range s.ws.Checkpoints() {
		rec := export.RecordFromCheckpoint(cp)
		entries = append(entries, map[string]any{
			"id":          rec.ID,
			"timestamp":   rec.Timestamp,
			"label":       rec.Label,
			"description": rec.Description,
		})
	}
	return jsonResult(map[string]any{"checkpoints": entries})
}

func (s *Server) handleDiffCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldID, err := req.RequireString("old_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newID, err := req.RequireString("new_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	diffs, err := s.ws.DiffCheckpoints(oldID, newID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diff %s..%s: %v", oldID, newID, err)), nil
	}
	data, err := export.MarshalDiffs(diffs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRestoreCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diffs, err := s.ws.BeginRestore(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("restore %s: %v", id, err)), nil
	}
	data, err := export.MarshalDiffs(diffs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleConfirmRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ws.ConfirmRestore(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("confirm restore: %v", err)), nil
	}
	return jsonResult(map[string]any{"ok": true})
}

func (s *Server) handleCancelRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ws.CancelRestore(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cancel restore: %v", err)), nil
	}
	return jsonResult(map[string]any{"ok": true})
}

// --- helpers ---

func jsonResult(doc map[string]any) (*mcp.CallToolResult, error) {
	data, err := oj.Marshal(doc, 2)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// underDir reports whether path sits at or below dir.
func underDir(path, dir string) bool {
	if dir == "/" || dir == "" {
		return true
	}
	if len(path) <= len(dir) {
		return false
	}
	return path[:len(dir)] == dir && path[len(dir)] == '/'
}
