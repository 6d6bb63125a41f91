package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerTaskTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("Lists tasks within a project, optionally filtered (milestone, status, user_story, assigned_to). verbosity: 'minimal' (id/ref/subject/status/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithObject("filters", mcp.Description("Extra query filters as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListTasks)

	s.mcpServer.AddTool(mcp.NewTool("list_user_story_tasks",
		mcp.WithDescription("Lists the tasks belonging to a user story. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("user_story_id", mcp.Required(), mcp.Description("User story ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListUserStoryTasks)

	s.mcpServer.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Creates a task in a project. Optional fields (description, user_story, milestone, status, ...) go in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Task subject")),
		mcp.WithObject("kwargs", mcp.Description("Optional fields as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateTask)

	s.mcpServer.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Gets a task by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetTask)

	s.mcpServer.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Updates a task. Pass the fields to change in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateTask)

	s.mcpServer.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Deletes a task by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteTask)

	s.mcpServer.AddTool(mcp.NewTool("assign_task_to_user",
		mcp.WithDescription("Assigns a task to a user. Uses the default session if session_id is omitted."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleAssignTask)

	s.mcpServer.AddTool(mcp.NewTool("unassign_task_from_user",
		mcp.WithDescription("Clears the assignee of a task. Uses the default session if session_id is omitted."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleUnassignTask)

	s.mcpServer.AddTool(mcp.NewTool("get_task_statuses",
		mcp.WithDescription("Lists the available task statuses of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleGetTaskStatuses)
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Tasks.List(ctx, args.ProjectID, filters)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindTask, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleListUserStoryTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Tasks.ListByUserStory(ctx, args.UserStoryID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindTask, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		return mcp.NewToolResultError("task subject cannot be empty"), nil
	}

	extra, err := s.validatedExtra(projection.KindTask, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Tasks.Create(ctx, args.ProjectID, args.Subject, extra)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindTask, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TaskID    int    `args:"task_id"`
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

	result, err := client.Tasks.Get(ctx, args.TaskID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindTask, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TaskID    int    `args:"task_id"`
		Kwargs    any    `args:"kwargs"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindTask, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Tasks.Update(ctx, args.TaskID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindTask, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TaskID    int    `args:"task_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if err := client.Tasks.Delete(ctx, args.TaskID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "task_id": args.TaskID}), nil
}

func (s *Server) handleAssignTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TaskID    int    `args:"task_id"`
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

	result, err := client.Tasks.Assign(ctx, args.TaskID, args.UserID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindTask, projection.Standard)), nil
}

func (s *Server) handleUnassignTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TaskID    int    `args:"task_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Tasks.Assign(ctx, args.TaskID, 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindTask, projection.Standard)), nil
}

func (s *Server) handleGetTaskStatuses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Tasks.Statuses(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result), nil
}
