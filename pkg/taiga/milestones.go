package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const milestonesPath = apiPrefix + "/milestones"

// MilestonesService covers the /milestones (sprint) endpoints.
type MilestonesService struct {
	client *Client
}

// List returns the milestones of a project.
func (s *MilestonesService) List(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, milestonesPath, q)
}

// Get retrieves one milestone by ID.
func (s *MilestonesService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", milestonesPath, id), nil)
}

// Create creates a milestone. Dates use the API's YYYY-MM-DD form.
func (s *MilestonesService) Create(ctx context.Context, projectID int, name, estimatedStart, estimatedFinish string) (map[string]any, error) {
	return s.client.create(ctx, milestonesPath, map[string]any{
		"project":          projectID,
		"name":             name,
		"estimated_start":  estimatedStart,
		"estimated_finish": estimatedFinish,
	})
}

// Update applies a partial update, fetching the current version first.
func (s *MilestonesService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, milestonesPath, id, fields)
}

// Delete removes a milestone.
func (s *MilestonesService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", milestonesPath, id))
}

// Stats returns the burndown statistics of a milestone.
func (s *MilestonesService) Stats(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d/stats", milestonesPath, id), nil)
}
