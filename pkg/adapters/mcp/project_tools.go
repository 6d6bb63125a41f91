package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/projection"
)

func (s *Server) registerProjectTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("Lists projects accessible to the authenticated user. verbosity: 'minimal' (id/name/slug), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListProjects)

	// Kept as an alias: scope already depends entirely on the caller's
	// permissions.
	s.mcpServer.AddTool(mcp.NewTool("list_all_projects",
		mcp.WithDescription("Lists all projects visible to the user (scope depends on permissions). verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleListProjects)

	s.mcpServer.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Gets a project by its ID. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetProject)

	s.mcpServer.AddTool(mcp.NewTool("get_project_by_slug",
		mcp.WithDescription("Gets a project by its slug. verbosity: 'minimal', 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetProjectBySlug)

	s.mcpServer.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Creates a new project. Optional fields (e.g. is_private) go in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Project description")),
		mcp.WithObject("kwargs", mcp.Description("Optional fields as a JSON object (optional)")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleCreateProject)

	s.mcpServer.AddTool(mcp.NewTool("update_project",
		mcp.WithDescription("Updates a project. Pass the fields to change in kwargs. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithObject("kwargs", mcp.Description("Fields to update as a JSON object")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleUpdateProject)

	s.mcpServer.AddTool(mcp.NewTool("delete_project",
		mcp.WithDescription("Deletes a project by its ID. This is irreversible. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleDeleteProject)

	s.mcpServer.AddTool(mcp.NewTool("get_project_roles",
		mcp.WithDescription("Lists the roles defined in a project, needed to invite users. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleGetProjectRoles)

	s.mcpServer.AddTool(mcp.NewTool("get_project_members",
		mcp.WithDescription("Lists members of a project. verbosity: 'minimal' (id/user/full_name), 'standard' (default), 'full'. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("verbosity", mcp.Description("Response detail level (optional)")),
	), s.handleGetProjectMembers)

	s.mcpServer.AddTool(mcp.NewTool("invite_project_user",
		mcp.WithDescription("Invites a user to a project by email with a specific role. Uses the default session if session_id is omitted."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Email address to invite")),
		mcp.WithNumber("role_id", mcp.Required(), mcp.Description("Role ID for the new member")),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
	), s.handleInviteProjectUser)
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
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

	result, err := client.Projects.List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindProject, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Projects.Get(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindProject, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleGetProjectBySlug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
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

	result, err := client.Projects.GetBySlug(ctx, args.Slug)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindProject, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Name        string `args:"name"`
		Description string `args:"description"`
		Kwargs      any    `args:"kwargs"`
		SessionID   string `args:"session_id"`
		Verbosity   string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Name == "" || args.Description == "" {
		return mcp.NewToolResultError("project name and description are required"), nil
	}

	extra, err := s.validatedExtra(projection.KindProject, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Projects.Create(ctx, args.Name, args.Description, extra)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindProject, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleUpdateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Kwargs    any    `args:"kwargs"`
		SessionID string `args:"session_id"`
		Verbosity string `args:"verbosity"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields, err := s.validatedExtra(projection.KindProject, args.Kwargs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Projects.Update(ctx, args.ProjectID, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterOne(result, projection.KindProject, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleDeleteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	if err := client.Projects.Delete(ctx, args.ProjectID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"status": "deleted", "project_id": args.ProjectID}), nil
}

func (s *Server) handleGetProjectRoles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Projects.Roles(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleGetProjectMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result, err := client.Memberships.List(ctx, args.ProjectID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(projection.FilterList(result, projection.KindMember, projection.ParseVerbosity(args.Verbosity, s.logger))), nil
}

func (s *Server) handleInviteProjectUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID int    `args:"project_id"`
		Email     string `args:"email"`
		RoleID    int    `args:"role_id"`
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Email == "" {
		return mcp.NewToolResultError("email is required"), nil
	}

	client, _, err := s.resolveClient(ctx, args.SessionID)
	if err != nil {
		return toolError(err), nil
	}

	result, err := client.Memberships.Invite(ctx, args.ProjectID, args.Email, args.RoleID)
	if err != nil {
		return toolError(err), nil
	}
	if result == nil {
		result = map[string]any{"status": "invited", "email": args.Email}
	}
	return jsonResult(result), nil
}

// validatedExtra parses a free-form kwargs argument and filters it through
// the write allowlist for the kind.
func (s *Server) validatedExtra(kind string, raw any) (map[string]any, error) {
	extra, err := parseObjectArg(raw)
	if err != nil {
		return nil, err
	}
	return projection.ValidateExtra(kind, extra, false, s.logger)
}
