package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerMilestoneTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_milestones",
		mcp.WithDescription("Lists milestones (sprints) within a project. verbosity: 'minimal' (id/name/slug/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListMilestones)

	s.mcpServer.AddTool(mcp.NewTool("create_milestone",
		mcp.WithDescription("Creates a milestone (sprint) in a project. Dates use YYYY-MM-DD. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Milestone name")),
		mcp.WithString("estimated_start", mcp.Required(), mcp.Description("Start date (YYYY-MM-DD)")),
		mcp.WithString("estimated_finish", mcp.Required(), mcp.Description("Finish date (YYYY-MM-DD)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateMilestone)

	s.mcpServer.AddTool(mcp.NewTool("get_milestone",
		mcp.WithDescription("Gets a milestone by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("milestone_id", mcp.Required(), mcp.Description("Milestone ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetMilestone)

	s.mcpServer.AddTool(mcp.NewTool("get_milestone_stats",
		mcp.WithDescription("Gets completion statistics for a milestone: total and completed points and user stories. Uses the default session if session_id is omitted."),
		mcp.WithNumber("milestone_id", mcp.Required(), mcp.Description("Milestone ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleGetMilestoneStats)

	s.mcpServer.AddTool(mcp.NewTool("update_milestone",
		mcp.WithDescription("Updates a milestone. Pass the fields to change in kwargs (e.g. {\"name\": \"Sprint 2\"}). Uses the default session if session_id is omitted."),
		mcp.WithNumber("milestone_id", mcp.Required(), mcp.Description("Milestone ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateMilestone)

	s.mcpServer.AddTool(mcp.NewTool("delete_milestone",
		mcp.WithDescription("Deletes a milestone by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("milestone_id", mcp.Required(), mcp.Description("Milestone ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteMilestone)
}

func (s *Server) handleListMilestones(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Milestones.List(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindMilestone, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateMilestone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID       int    `args:"project_id"`
		Name            string `args:"name"`
		EstimatedStart  string `args:"estimated_start"`
		EstimatedFinish string `args:"estimated_finish"`
		SessionID       string `args:"session_id"`
		Verbosity       string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Name == "" || args.EstimatedStart == "" || args.EstimatedFinish == "" {
		return mcp.NewToolResultError("milestone requires name, estimated_start and estimated_finish"), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Milestones.Create(ctx, args.ProjectID, args.Name, args.EstimatedStart, args.EstimatedFinish)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindMilestone, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetMilestone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Milestones.Get(ctx, args.MilestoneID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindMilestone, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetMilestoneStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		MilestoneID int    `args:"milestone_id"`
		SessionID   string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Milestones.Stats(ctx, args.MilestoneID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleUpdateMilestone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		MilestoneID int    `args:"milestone_id"`
		Kwargs      any    `args:"kwargs"`
		SessionID   string `args:"session_id"`
		Verbosity   string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindMilestone, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Milestones.Update(ctx, args.MilestoneID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindMilestone, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteMilestone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		MilestoneID int    `args:"milestone_id"`
		SessionID   string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if err := client.Milestones.Delete(ctx, args.MilestoneID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "milestone_id": args.MilestoneID}), nil
}
