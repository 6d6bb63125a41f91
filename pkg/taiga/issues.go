package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const issuesPath = apiPrefix + "/issues"

// IssuesService covers the /issues endpoints plus the per-project issue
// metadata (statuses, types, priorities, severities).
type IssuesService struct {
	client *Client
}

// List returns the issues of a project, optionally narrowed by filters.
func (s *IssuesService) List(ctx context.Context, projectID int, filters map[string]any) ([]map[string]any, error) {
	return s.client.getList(ctx, issuesPath, projectQuery(projectID, filters))
}

// Get retrieves one issue by ID.
func (s *IssuesService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", issuesPath, id), nil)
}

// Create creates an issue in a project.
func (s *IssuesService) Create(ctx context.Context, projectID int, subject string, extra map[string]any) (map[string]any, error) {
	body := map[string]any{"project": projectID, "subject": subject}
	for k, v := range extra {
		body[k] = v
	}
	return s.client.create(ctx, issuesPath, body)
}

// Update applies a partial update, fetching the current version first.
func (s *IssuesService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, issuesPath, id, fields)
}

// Delete removes an issue.
func (s *IssuesService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", issuesPath, id))
}

// Assign sets the assignee. Pass 0 as userID to unassign.
func (s *IssuesService) Assign(ctx context.Context, id, userID int) (map[string]any, error) {
	var assigned any
	if userID != 0 {
		assigned = userID
	}
	return s.Update(ctx, id, map[string]any{"assigned_to": assigned})
}

func (s *IssuesService) metadata(ctx context.Context, path string, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, path, q)
}

// Statuses lists the issue statuses configured for a project.
func (s *IssuesService) Statuses(ctx context.Context, projectID int) ([]map[string]any, error) {
	return s.metadata(ctx, apiPrefix+"/issue-statuses", projectID)
}

// Types lists the issue types configured for a project.
func (s *IssuesService) Types(ctx context.Context, projectID int) ([]map[string]any, error) {
	return s.metadata(ctx, apiPrefix+"/issue-types", projectID)
}

// Priorities lists the issue priorities configured for a project.
func (s *IssuesService) Priorities(ctx context.Context, projectID int) ([]map[string]any, error) {
	return s.metadata(ctx, apiPrefix+"/priorities", projectID)
}

// Severities lists the issue severities configured for a project.
func (s *IssuesService) Severities(ctx context.Context, projectID int) ([]map[string]any, error) {
	return s.metadata(ctx, apiPrefix+"/severities", projectID)
}
