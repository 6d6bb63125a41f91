package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const projectsPath = apiPrefix + "/projects"

// ProjectsService covers the /projects endpoints.
type ProjectsService struct {
	client *Client
}

// List returns the projects visible to the authenticated user.
func (s *ProjectsService) List(ctx context.Context) ([]map[string]any, error) {
	return s.client.getList(ctx, projectsPath, nil)
}

// Get retrieves one project by ID.
func (s *ProjectsService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", projectsPath, id), nil)
}

// GetBySlug retrieves one project by its slug.
func (s *ProjectsService) GetBySlug(ctx context.Context, slug string) (map[string]any, error) {
	q := url.Values{}
	q.Set("slug", slug)
	return s.client.getOne(ctx, projectsPath+"/by_slug", q)
}

// Create creates a project. Optional fields (is_private, tags, ...) ride in extra.
func (s *ProjectsService) Create(ctx context.Context, name, description string, extra map[string]any) (map[string]any, error) {
	body := map[string]any{"name": name, "description": description}
	for k, v := range extra {
		body[k] = v
	}
	return s.client.create(ctx, projectsPath, body)
}

// Update applies a partial update, fetching the current version first.
func (s *ProjectsService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, projectsPath, id, fields)
}

// Delete removes a project. Irreversible.
func (s *ProjectsService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", projectsPath, id))
}

// Roles lists the roles defined in a project.
func (s *ProjectsService) Roles(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, apiPrefix+"/roles", q)
}
