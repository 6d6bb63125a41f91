package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerEpicTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_epics",
		mcp.WithDescription("Lists epics within a project, optionally filtered. verbosity: 'minimal' (id/ref/subject/status/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithObject("filters", mcp.Description("Extra query filters as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListEpics)

	s.mcpServer.AddTool(mcp.NewTool("create_epic",
		mcp.WithDescription("Creates an epic in a project. Optional fields (description, color, ...) go in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Epic subject")),
		mcp.WithObject("kwargs", mcp.Description("Optional fields as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateEpic)

	s.mcpServer.AddTool(mcp.NewTool("get_epic",
		mcp.WithDescription("Gets an epic by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetEpic)

	s.mcpServer.AddTool(mcp.NewTool("update_epic",
		mcp.WithDescription("Updates an epic. Pass the fields to change in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateEpic)

	s.mcpServer.AddTool(mcp.NewTool("delete_epic",
		mcp.WithDescription("Deletes an epic by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteEpic)

	s.mcpServer.AddTool(mcp.NewTool("assign_epic_to_user",
		mcp.WithDescription("Assigns an epic to a user. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleAssignEpic)

	s.mcpServer.AddTool(mcp.NewTool("unassign_epic_from_user",
		mcp.WithDescription("Clears the assignee of an epic. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleUnassignEpic)

	s.mcpServer.AddTool(mcp.NewTool("get_epic_statuses",
		mcp.WithDescription("Lists the available epic statuses of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleGetEpicStatuses)

	s.mcpServer.AddTool(mcp.NewTool("link_user_story_to_epic",
		mcp.WithDescription("Links a user story to an epic. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleLinkUserStoryToEpic)

	s.mcpServer.AddTool(mcp.NewTool("list_epic_user_stories",
		mcp.WithDescription("Lists the user stories linked to an epic. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("epic_id", mcp.Required(), mcp.Description("Epic ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListEpicUserStories)
}

func (s *Server) handleListEpics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Filters   any    `args:"filters"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filters, err := parseObjectArg(args.Filters)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.List(ctx, args.ProjectID, filters)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindEpic, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Subject   string `args:"subject"`
		Kwargs    any    `args:"kwargs"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Subject == "" {
		return mcp.NewToolResultError("epic subject cannot be empty"), nil
	}

	extra, err := s.validatedExtra(projection.KindEpic, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.Create(ctx, args.ProjectID, args.Subject, extra)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindEpic, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
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

	result, err := client.Epics.Get(ctx, args.EpicID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindEpic, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
		Kwargs    any    `args:"kwargs"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindEpic, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.Update(ctx, args.EpicID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindEpic, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if err := client.Epics.Delete(ctx, args.EpicID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "epic_id": args.EpicID}), nil
}

func (s *Server) handleAssignEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
		UserID    int    `args:"user_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.Assign(ctx, args.EpicID, args.UserID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindEpic, projection.Standard)), nil
}

func (s *Server) handleUnassignEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.Assign(ctx, args.EpicID, 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindEpic, projection.Standard)), nil
}

func (s *Server) handleGetEpicStatuses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Epics.Statuses(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleLinkUserStoryToEpic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID      int    `args:"epic_id"`
		UserStoryID int    `args:"user_story_id"`
		SessionID   string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if _, err := client.Epics.LinkUserStory(ctx, args.EpicID, args.UserStoryID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"status":        "linked",
		"epic_id":       args.EpicID,
		"user_story_id": args.UserStoryID,
	}), nil
}

func (s *Server) handleListEpicUserStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EpicID    int    `args:"epic_id"`
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

	result, err := client.Epics.RelatedUserStories(ctx, args.EpicID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}
