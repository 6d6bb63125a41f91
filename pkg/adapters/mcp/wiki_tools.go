package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerWikiTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_wiki_pages",
		mcp.WithDescription("Lists wiki pages within a project. verbosity: 'minimal' (id/slug/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListWikiPages)

	s.mcpServer.AddTool(mcp.NewTool("get_wiki_page",
		mcp.WithDescription("Gets a wiki page by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("wiki_page_id", mcp.Required(), mcp.Description("Wiki page ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetWikiPage)

	s.mcpServer.AddTool(mcp.NewTool("get_wiki_page_by_slug",
		mcp.WithDescription("Gets a wiki page by project and slug. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Wiki page slug")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetWikiPageBySlug)

	s.mcpServer.AddTool(mcp.NewTool("create_wiki_page",
		mcp.WithDescription("Creates a wiki page in a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Page content (markdown)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateWikiPage)

	s.mcpServer.AddTool(mcp.NewTool("update_wiki_page",
		mcp.WithDescription("Updates a wiki page. Pass the fields to change in kwargs (e.g. {\"content\": \"...\"}). Uses the default session if session_id is omitted."),
		mcp.WithNumber("wiki_page_id", mcp.Required(), mcp.Description("Wiki page ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateWikiPage)

	s.mcpServer.AddTool(mcp.NewTool("delete_wiki_page",
		mcp.WithDescription("Deletes a wiki page by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("wiki_page_id", mcp.Required(), mcp.Description("Wiki page ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteWikiPage)
}

func (s *Server) handleListWikiPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Wiki.List(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindWikiPage, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetWikiPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		WikiPageID int    `args:"wiki_page_id"`
		SessionID  string `args:"session_id"`
		Verbosity  string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Wiki.Get(ctx, args.WikiPageID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindWikiPage, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetWikiPageBySlug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Slug      string `args:"slug"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Slug == "" {
		return mcp.NewToolResultError("slug is required"), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Wiki.GetBySlug(ctx, args.ProjectID, args.Slug)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindWikiPage, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateWikiPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Slug      string `args:"slug"`
		Content   string `args:"content"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Slug == "" || args.Content == "" {
		return mcp.NewToolResultError("wiki page slug and content are required"), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Wiki.Create(ctx, args.ProjectID, args.Slug, args.Content)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindWikiPage, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateWikiPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		WikiPageID int    `args:"wiki_page_id"`
		Kwargs     any    `args:"kwargs"`
		SessionID  string `args:"session_id"`
		Verbosity  string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindWikiPage, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Wiki.Update(ctx, args.WikiPageID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindWikiPage, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteWikiPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		WikiPageID int    `args:"wiki_page_id"`
		SessionID  string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if err := client.Wiki.Delete(ctx, args.WikiPageID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "wiki_page_id": args.WikiPageID}), nil
}
