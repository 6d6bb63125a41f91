package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const userStoriesPath = apiPrefix + "/userstories"

// UserStoriesService covers the /userstories endpoints.
type UserStoriesService struct {
	client *Client
}

// List returns the user stories of a project, optionally narrowed by filters
// such as milestone, status, or assigned_to.
func (s *UserStoriesService) List(ctx context.Context, projectID int, filters map[string]any) ([]map[string]any, error) {
	return s.client.getList(ctx, userStoriesPath, projectQuery(projectID, filters))
}

// ListByMilestone returns the user stories scheduled into one sprint.
func (s *UserStoriesService) ListByMilestone(ctx context.Context, milestoneID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("milestone", strconv.Itoa(milestoneID))
	return s.client.getList(ctx, userStoriesPath, q)
}

// Get retrieves one user story by ID.
func (s *UserStoriesService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", userStoriesPath, id), nil)
}

// Create creates a user story in a project.
func (s *UserStoriesService) Create(ctx context.Context, projectID int, subject string, extra map[string]any) (map[string]any, error) {
	body := map[string]any{"project": projectID, "subject": subject}
	for k, v := range extra {
		body[k] = v
	}
	return s.client.create(ctx, userStoriesPath, body)
}

// Update applies a partial update, fetching the current version first.
func (s *UserStoriesService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, userStoriesPath, id, fields)
}

// Delete removes a user story.
func (s *UserStoriesService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", userStoriesPath, id))
}

// Assign sets the assignee. Pass 0 as userID to unassign.
func (s *UserStoriesService) Assign(ctx context.Context, id, userID int) (map[string]any, error) {
	var assigned any
	if userID != 0 {
		assigned = userID
	}
	return s.Update(ctx, id, map[string]any{"assigned_to": assigned})
}

// Statuses lists the user story statuses configured for a project.
func (s *UserStoriesService) Statuses(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, apiPrefix+"/userstory-statuses", q)
}
