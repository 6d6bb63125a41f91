package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const wikiPath = apiPrefix + "/wiki"

// WikiService covers the /wiki page endpoints.
type WikiService struct {
	client *Client
}

// List returns the wiki pages of a project.
func (s *WikiService) List(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, wikiPath, q)
}

// Get retrieves one wiki page by ID.
func (s *WikiService) Get(ctx context.Context, id int) (map[string]any, error) {
	return s.client.getOne(ctx, fmt.Sprintf("%s/%d", wikiPath, id), nil)
}

// GetBySlug retrieves a wiki page by project and slug.
func (s *WikiService) GetBySlug(ctx context.Context, projectID int, slug string) (map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	q.Set("slug", slug)
	return s.client.getOne(ctx, wikiPath+"/by_slug", q)
}

// Create creates a wiki page in a project.
func (s *WikiService) Create(ctx context.Context, projectID int, slug, content string) (map[string]any, error) {
	return s.client.create(ctx, wikiPath, map[string]any{
		"project": projectID,
		"slug":    slug,
		"content": content,
	})
}

// Update applies a partial update, fetching the current version first.
func (s *WikiService) Update(ctx context.Context, id int, fields map[string]any) (map[string]any, error) {
	return s.client.patchWithVersion(ctx, wikiPath, id, fields)
}

// Delete removes a wiki page.
func (s *WikiService) Delete(ctx context.Context, id int) error {
	return s.client.deletePath(ctx, fmt.Sprintf("%s/%d", wikiPath, id))
}
