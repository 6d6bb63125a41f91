package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const tasksPath = apiPrefix + "/tasks"

// TasksService covers the /tasks endpoints.
type TasksService struct {
	client *Client
}

// List returns the tasks of a project, optionally narrowed by filters such as
// user_story, milestone, or status.
func (s *TasksService) List(ctx context.Context, projectID int, filters map[string]any) ([]map[string]any, error) {
	return s.client.getList(ctx, tasksPath, projectQuery(projectID, filters))
}

// ListByUserStory returns the tasks attached to one user story.
func (s *TasksService) ListByUserStory(ctx context.Context, userStoryID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("user_story", strconv.Itoa(userStoryID))
	return s.client.getList(ctx, tasksPath, q)
}

// Get retrieves one task by ID.
func (s *TasksService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", tasksPath, id), nil)
}

// Create creates a task in a project.
func (s *TasksService) Create(ctx context.Context, projectID int, subject string, extra map[string]any) (map[string]any, error) {
	body := map[string]any{"project": projectID, "subject": subject}
	for k, v := range extra {
		body[k] = v
	}
	return s.client.create(ctx, tasksPath, body)
}

// Update applies a partial update, fetching the current version first.
func (s *TasksService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, tasksPath, id, fields)
}

// Delete removes a task.
func (s *TasksService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", tasksPath, id))
}

// Assign sets the assignee. Pass 0 as userID to unassign.
func (s *TasksService) Assign(ctx context.Context, id, userID int) (map[string]any, error) {
	var assigned any
	if userID != 0 {
		assigned = userID
	}
	return s.Update(ctx, id, map[string]any{"assigned_to": assigned})
}

// Statuses lists the task statuses configured for a project.
func (s *TasksService) Statuses(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, apiPrefix+"/task-statuses", q)
}
