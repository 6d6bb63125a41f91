package taiga

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// The per-resource services below are thin pass-through glue: they name an
// endpoint, forward the fields, and return Taiga's JSON as generic maps. The
// interesting policy (budgeting, retry, auth) lives in Client.Call.

func (c *Client) getOne(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	var out map[string]any
	err := c.Call(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, &out)
	return out, err
}

func (c *Client) getList(ctx context.Context, path string, q url.Values) ([]map[string]any, error) {
	var out []map[string]any
	err := c.Call(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, &out)
	return out, err
}

func (c *Client) create(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.Call(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, &out)
	return out, err
}

// patchWithVersion implements Taiga's optimistic concurrency contract: fetch
// the object to learn its current version, then send a partial PATCH carrying
// that version alongside the changed fields.
func (c *Client) patchWithVersion(ctx context.Context, basePath string, id int, fields map[string]any) (map[string]any, error) {
	path := fmt.Sprintf("%s/%d", basePath, id)

	if len(fields) == 0 {
		return c.getOne(ctx, path, nil)
	}

	current, err := c.getOne(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	if version, ok := current["version"]; ok {
		body["version"] = version
	} else {
		c.logger.Warn("No version on object, patching without optimistic lock", "path", path)
	}

	var out map[string]any
	err = c.Call(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, &out)
	return out, err
}

func (c *Client) deletePath(ctx context.Context, path string) error {
	return c.Call(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}
