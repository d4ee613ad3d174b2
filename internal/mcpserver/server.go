// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Tabula board and note tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tabula/internal/boardservice"
)

// Server wraps the MCP server with Tabula tools.
type Server struct {
	mcp *server.MCPServer
	svc *boardservice.Service
}

// New creates a new MCP server with all Tabula tools registered.
func New(svc *boardservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Tabula",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List all boards in order, marking the active one."),
	), s.listBoards)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally filtered to a single board."),
		mcp.WithString("board", mcp.Description("Optional board name to filter by (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note on the active board. The note is placed "+
			"first in the notes list."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("move_note",
		mcp.WithDescription("Move a note to another board without changing its position."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("board", mcp.Required(), mcp.Description("Target board name (must exist)")),
	), s.moveNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Soft-delete a note. It moves to the trash and can be "+
			"restored with restore_note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("restore_note",
		mcp.WithDescription("Restore a soft-deleted note from the trash. If its board "+
			"no longer exists it lands on the first board."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.restoreNote)

	s.mcp.AddTool(mcp.NewTool("export_board",
		mcp.WithDescription("Export a single board and its notes as a JSON document."),
		mcp.WithString("board", mcp.Required(), mcp.Description("Board name to export")),
	), s.exportBoard)

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

func (s *Server) listBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.svc.Snapshot()
	active := s.svc.ActiveBoard()

	var b strings.Builder
	for _, board := range snap.Boards {
		if board == active {
			fmt.Fprintf(&b, "* %s (active)\n", board)
		} else {
			fmt.Fprintf(&b, "* %s\n", board)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board := ""
	if f, err := req.RequireString("board"); err == nil {
		board = f
	}

	notes := s.svc.Snapshot().Notes
	if board != "" {
		filtered := notes[:0:0]
		for _, n := range notes {
			if n.Board == board {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}

	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.AddNote(content, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s on board %q", note.ID, note.Board)), nil
}

func (s *Server) moveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	board, err := req.RequireString("board")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.MoveNote(id, board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s to %q", id, board)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s (restorable from trash)", id)), nil
}

func (s *Server) restoreNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.RestoreNote(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s to board %q", note.ID, note.Board)), nil
}

func (s *Server) exportBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	board, err := req.RequireString("board")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.ExportBoard(board)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
