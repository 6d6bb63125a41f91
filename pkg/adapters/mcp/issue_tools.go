package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerIssueTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_issues",
		mcp.WithDescription("Lists issues within a project, optionally filtered (milestone, status, priority, severity, type, assigned_to). verbosity: 'minimal' (id/ref/subject/status/priority/severity/project), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithObject("filters", mcp.Description("Extra query filters as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListIssues)

	s.mcpServer.AddTool(mcp.NewTool("create_issue",
		mcp.WithDescription("Creates an issue in a project. Optional fields (description, priority, severity, type, status, ...) go in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Issue subject")),
		mcp.WithObject("kwargs", mcp.Description("Optional fields as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateIssue)

	s.mcpServer.AddTool(mcp.NewTool("get_issue",
		mcp.WithDescription("Gets an issue by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetIssue)

	s.mcpServer.AddTool(mcp.NewTool("update_issue",
		mcp.WithDescription("Updates an issue. Pass the fields to change in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateIssue)

	s.mcpServer.AddTool(mcp.NewTool("delete_issue",
		mcp.WithDescription("Deletes an issue by its ID. Uses the default session if session_id is omitted."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteIssue)

	s.mcpServer.AddTool(mcp.NewTool("assign_issue_to_user",
		mcp.WithDescription("Assigns an issue to a user. Uses the default session if session_id is omitted."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue ID")),
		mcp.WithNumber("user_id", mcp.Required(), mcp.Description("User ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleAssignIssue)

	s.mcpServer.AddTool(mcp.NewTool("unassign_issue_from_user",
		mcp.WithDescription("Clears the assignee of an issue. Uses the default session if session_id is omitted."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleUnassignIssue)

	s.mcpServer.AddTool(mcp.NewTool("get_issue_statuses",
		mcp.WithDescription("Lists the available issue statuses of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.issueMetadataHandler(func(ctx context.Context, c issueMetadataClient, projectID int) ([]map[string]any, error) {
		return c.Statuses(ctx, projectID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("get_issue_types",
		mcp.WithDescription("Lists the available issue types of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.issueMetadataHandler(func(ctx context.Context, c issueMetadataClient, projectID int) ([]map[string]any, error) {
		return c.Types(ctx, projectID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("get_issue_priorities",
		mcp.WithDescription("Lists the available issue priorities of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.issueMetadataHandler(func(ctx context.Context, c issueMetadataClient, projectID int) ([]map[string]any, error) {
		return c.Priorities(ctx, projectID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("get_issue_severities",
		mcp.WithDescription("Lists the available issue severities of a project. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.issueMetadataHandler(func(ctx context.Context, c issueMetadataClient, projectID int) ([]map[string]any, error) {
		return c.Severities(ctx, projectID)
	}))
}

// issueMetadataClient is the slice of IssuesService the metadata tools need.
type issueMetadataClient interface {
	Statuses(ctx context.Context, projectID int) ([]map[string]any, error)
	Types(ctx context.Context, projectID int) ([]map[string]any, error)
	Priorities(ctx context.Context, projectID int) ([]map[string]any, error)
	Severities(ctx context.Context, projectID int) ([]map[string]any, error)
}

// issueMetadataHandler factors the four lookup tools that differ only in the
// endpoint they hit.
func (s *Server) issueMetadataHandler(fetch func(context.Context, issueMetadataClient, int) ([]map[string]any, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

		result, err := fetch(ctx, client.Issues, args.ProjectID)
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(result), nil
	}
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Issues.List(ctx, args.ProjectID, filters)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindIssue, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		return mcp.NewToolResultError("issue subject cannot be empty"), nil
	}

	extra, err := s.validatedExtra(projection.KindIssue, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Issues.Create(ctx, args.ProjectID, args.Subject, extra)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindIssue, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		IssueID   int    `args:"issue_id"`
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

	result, err := client.Issues.Get(ctx, args.IssueID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindIssue, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		IssueID   int    `args:"issue_id"`
		Kwargs    any    `args:"kwargs"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindIssue, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Issues.Update(ctx, args.IssueID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindIssue, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		IssueID   int    `args:"issue_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	if err := client.Issues.Delete(ctx, args.IssueID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "issue_id": args.IssueID}), nil
}

func (s *Server) handleAssignIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		IssueID   int    `args:"issue_id"`
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

	result, err := client.Issues.Assign(ctx, args.IssueID, args.UserID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindIssue, projection.Standard)), nil
}

func (s *Server) handleUnassignIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		IssueID   int    `args:"issue_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Issues.Assign(ctx, args.IssueID, 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindIssue, projection.Standard)), nil
}
