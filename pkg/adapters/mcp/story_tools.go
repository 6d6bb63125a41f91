package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerUserStoryTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_user_stories",
		mcp.WithDescription("Lists user stories within a project, optionally filtered (milestone, status, assigned_to). verbosity: 'minimal' (id/ref/subject/status/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithObject("filters", mcp.Description("Extra query filters as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListUserStories)

	s.mcpServer.AddTool(mcp.NewTool("list_milestone_user_stories",
		mcp.WithDescription("Lists the user stories assigned to a milestone (sprint). verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("milestone_id", mcp.Required(), mcp.Description("Milestone ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListMilestoneUserStories)

	s.mcpServer.AddTool(mcp.NewTool("create_user_story",
		mcp.WithDescription("Creates a user story in a project. Optional fields (description, milestone, status, assigned_to, ...) go in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Story subject")),
		mcp.WithObject("kwargs", mcp.Description("Optional fields as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateUserStory)

	s.mcpServer.AddTool(mcp.NewTool("get_user_story",
		mcp.WithDescription("Gets a user story by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetUserStory)

	s.mcpServer.AddTool(mcp.NewTool("update_user_story",
		mcp.WithDescription("Updates a user story. Pass the fields to change in kwargs (e.g. {\"subject\": \"New\", \"status\": 2}). Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateUserStory)

	s.mcpServer.AddTool(mcp.NewTool("delete_user_story",
		mcp.WithDescription("Deletes a user story by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteUserStory)

	s.mcpServer.AddTool(mcp.NewTool("assign_user_story_to_user",
		mcp.WithDescription("Assigns a user story to a user. Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleAssignUserStory)

	s.mcpServer.AddTool(mcp.NewTool("unassign_user_story_from_user",
		mcp.WithDescription("Clears the assignee of a user story. Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleUnassignUserStory)

	s.mcpServer.AddTool(mcp.NewTool("get_user_story_statuses",
		mcp.WithDescription("Lists the available user story statuses of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleGetUserStoryStatuses)
}

func (s *Server) handleListUserStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.UserStories.List(ctx, args.ProjectID, filters)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleListMilestoneUserStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		MilestoneID int    `args:"milestone_id"`
		SessionID   string `args:"session_id"`
		Verbosity   string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.UserStories.ListByMilestone(ctx, args.MilestoneID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		return mcp.NewToolResultError("user story subject cannot be empty"), nil
	}

	extra, err := s.validatedExtra(projection.KindUserStory, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.UserStories.Create(ctx, args.ProjectID, args.Subject, extra)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UserStoryID int    `args:"user_story_id"`
		SessionID   string `args:"session_id"`
		Verbosity   string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.UserStories.Get(ctx, args.UserStoryID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UserStoryID int    `args:"user_story_id"`
		Kwargs      any    `args:"kwargs"`
		SessionID   string `args:"session_id"`
		Verbosity   string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindUserStory, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.UserStories.Update(ctx, args.UserStoryID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindUserStory, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
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

	if err := client.UserStories.Delete(ctx, args.UserStoryID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "user_story_id": args.UserStoryID}), nil
}

func (s *Server) handleAssignUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UserStoryID int    `args:"user_story_id"`
		UserID      int    `args:"user_id"`
		SessionID   string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.UserStories.Assign(ctx, args.UserStoryID, args.UserID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindUserStory, projection.Standard)), nil
}

func (s *Server) handleUnassignUserStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
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

	result, err := client.UserStories.Assign(ctx, args.UserStoryID, 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindUserStory, projection.Standard)), nil
}

func (s *Server) handleGetUserStoryStatuses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.UserStories.Statuses(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result), nil
}
