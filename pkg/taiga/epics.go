package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const epicsPath = apiPrefix + "/epics"

// EpicsService covers the /epics endpoints, including the related-userstory
// link table.
type EpicsService struct {
	client *Client
}

// List returns the epics of a project.
func (s *EpicsService) List(ctx context.Context, projectID int, filters map[string]any) ([]map[string]any, error) {
	return s.client.getList(ctx, epicsPath, projectQuery(projectID, filters))
}

// Get retrieves one epic by ID.
func (s *EpicsService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", epicsPath, id), nil)
}

// Create creates an epic in a project.
func (s *EpicsService) Create(ctx context.Context, projectID int, subject string, extra map[string]any) (map[string]any, error) {
	body := map[string]any{"project": projectID, "subject": subject}
	for k, v := range extra {
		body[k] = v
	}
	return s.client.create(ctx, epicsPath, body)
}

// Update applies a partial update, fetching the current version first.
func (s *EpicsService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, epicsPath, id, fields)
}

// Delete removes an epic.
func (s *EpicsService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", epicsPath, id))
}

// Assign sets the assignee. Pass 0 as userID to unassign.
func (s *EpicsService) Assign(ctx context.Context, id, userID int) (map[string]any, error) {
	var assigned any
	if userID != 0 {
		assigned = userID
	}
	return s.Update(ctx, id, map[string]any{"assigned_to": assigned})
}

// Statuses lists the epic statuses configured for a project.
func (s *EpicsService) Statuses(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, apiPrefix+"/epic-statuses", q)
}

// LinkUserStory attaches a user story to an epic.
func (s *EpicsService) LinkUserStory(ctx context.Context, epicID, userStoryID int) (map[string]any, error) {
	path := fmt.Sprintf("%s/%d/related_userstories", epicsPath, epicID)
	return s.client.create(ctx, path, map[string]any{
		"epic":       epicID,
		"user_story": userStoryID,
	})
}

// RelatedUserStories lists the user stories attached to an epic.
func (s *EpicsService) RelatedUserStories(ctx context.Context, epicID int) ([]map[string]any, error) {
	path := fmt.Sprintf("%s/%d/related_userstories", epicsPath, epicID)
	return s.client.getList(ctx, path, nil)
}
