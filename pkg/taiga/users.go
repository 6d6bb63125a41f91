package taiga

import "context"

// UsersService covers the /users endpoints the bridge needs.
type UsersService struct {
	client *Client
}

// Me returns the authenticated user, which doubles as a cheap token validity
// probe for session status checks.
func (s *UsersService) Me(ctx context.Context) (map[string]any, error) {
	return s.client.getOne(ctx, apiPrefix+"/users/me", nil)
}
