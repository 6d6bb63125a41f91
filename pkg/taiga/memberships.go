package taiga

import (
	"context"
	"net/url"
	"strconv"
)

const membershipsPath = apiPrefix + "/memberships"

// MembershipsService covers project membership and invitations.
type MembershipsService struct {
	client *Client
}

// List returns the members of a project.
func (s *MembershipsService) List(ctx context.Context, projectID int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("project", strconv.Itoa(projectID))
	return s.client.getList(ctx, membershipsPath, q)
}

// Invite invites a user by email into a project with the given role.
func (s *MembershipsService) Invite(ctx context.Context, projectID int, email string, roleID int) (map[string]any, error) {
	return s.client.create(ctx, membershipsPath, map[string]any{
		"project":  projectID,
		"role":     roleID,
		"username": email,
	})
}
