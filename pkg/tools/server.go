// Package tools exposes the reminder engine, history log and settings as
// MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/reminders"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

const (
	serverName    = "lms-reminder"
	serverVersion = "1.0.0"
)

type Server struct {
	mcpServer *server.MCPServer
	engine    *reminders.Engine
	history   *history.Log
	settings  *settings.Store
}

func NewServer(engine *reminders.Engine, log *history.Log, store *settings.Store) *Server {
	s := &Server{
		engine:   engine,
		history:  log,
		settings: store,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("run_reminder_cycle",
			mcp.WithDescription("Fetch the dashboard and rebuild the reminder schedule now"),
		),
		s.handleRunCycle,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_history",
			mcp.WithDescription("List delivered reminders, newest first"),
			mcp.WithBoolean("unread_only", mcp.Description("Only return unread entries")),
		),
		s.handleListHistory,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("mark_read",
			mcp.WithDescription("Mark one history entry as read"),
			mcp.WithString("id", mcp.Required(), mcp.Description("History entry ID")),
		),
		s.handleMarkRead,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("mark_all_read",
			mcp.WithDescription("Mark every history entry as read"),
		),
		s.handleMarkAllRead,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_history_entry",
			mcp.WithDescription("Delete one history entry"),
			mcp.WithString("id", mcp.Required(), mcp.Description("History entry ID")),
		),
		s.handleDeleteEntry,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("clear_history",
			mcp.WithDescription("Delete all history entries"),
		),
		s.handleClearHistory,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_settings",
			mcp.WithDescription("Show reminder lead times and toggles"),
		),
		s.handleGetSettings,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_settings",
			mcp.WithDescription("Set one reminder category. Offset categories take tokens (1h, 5h, 12h, 1d, 0); video-open and ai-summary take on or off"),
			mcp.WithString("category", mcp.Required(), mcp.Description("unfinished-assignment, finished-assignment, unfinished-video, video-open or ai-summary")),
			mcp.WithString("values", mcp.Description("Space or comma separated tokens; empty clears an offset category")),
		),
		s.handleUpdateSettings,
	)
}

type cycleResult struct {
	Status    reminders.Status `json:"status"`
	Scheduled int              `json:"scheduled"`
	Failed    int              `json:"failed"`
	Reminders []string         `json:"reminders"`
}

func (s *Server) handleRunCycle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.engine.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reminder cycle failed, existing schedule kept: %v", err)), nil
	}
	return jsonResult(cycleResult{
		Status:    summary.Status,
		Scheduled: summary.Scheduled,
		Failed:    summary.Failed,
		Reminders: summary.Lines,
	})
}

type historyResult struct {
	Unread  int             `json:"unread"`
	Total   int             `json:"total"`
	Entries []history.Entry `json:"entries"`
}

func (s *Server) handleListHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unreadOnly := req.GetBool("unread_only", false)

	entries := s.history.List(ctx)
	result := historyResult{Total: len(entries), Entries: make([]history.Entry, 0, len(entries))}
	for _, e := range entries {
		if !e.Read {
			result.Unread++
		} else if unreadOnly {
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	return jsonResult(result)
}

func (s *Server) handleMarkRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if _, ok := s.history.Get(ctx, id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("history entry %s not found", id)), nil
	}
	if err := s.history.MarkRead(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to mark entry read: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("History entry %s marked as read", id)), nil
}

func (s *Server) handleMarkAllRead(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.history.MarkAllRead(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to mark history read: %v", err)), nil
	}
	return mcp.NewToolResultText("All history entries marked as read"), nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if _, ok := s.history.Get(ctx, id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("history entry %s not found", id)), nil
	}
	if err := s.history.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete entry: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("History entry %s deleted", id)), nil
}

func (s *Server) handleClearHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.history.Clear(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear history: %v", err)), nil
	}
	return mcp.NewToolResultText("History cleared"), nil
}

func (s *Server) handleGetSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.settings.Load(ctx))
}

func (s *Server) handleUpdateSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if strings.TrimSpace(category) == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	values := strings.Fields(req.GetString("values", ""))

	updated, err := s.settings.Update(ctx, func(current *settings.Settings) error {
		return current.Apply(category, values)
	})
	if err != nil {
		logger.Warn("rejected settings update", "category", category, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to update settings: %v", err)), nil
	}
	if _, err := s.engine.Run(ctx); err != nil {
		logger.Warn("reminder resync after settings change failed", "error", err)
	}
	return jsonResult(updated)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
