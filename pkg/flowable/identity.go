package flowable

import (
	"context"
	"net/http"

	"github.com/kode4food/bpmspec/pkg/api"
)

func (c *Client) User(
	ctx context.Context, id string,
) (*api.User, bool, error) {
	path := pathOf(PathUsers, id)
	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, false, err
	}
	switch {
	case resp.ok():
		return &api.User{
			ID:        resp.body.Get("id").String(),
			FirstName: resp.body.Get("firstName").String(),
			LastName:  resp.body.Get("lastName").String(),
			Email:     resp.body.Get("email").String(),
		}, true, nil
	case resp.status == http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, resp.fail(http.MethodGet, path)
	}
}

func (c *Client) Group(
	ctx context.Context, id string,
) (*api.Group, bool, error) {
	path := pathOf(PathGroups, id)
	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, false, err
	}
	switch {
	case resp.ok():
		return &api.Group{
			ID:   resp.body.Get("id").String(),
			Name: resp.body.Get("name").String(),
		}, true, nil
	case resp.status == http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, resp.fail(http.MethodGet, path)
	}
}

// CheckPassword reads the user's own record while authenticated as that
// user. Rejected credentials report false
func (c *Client) CheckPassword(
	ctx context.Context, userID, password string,
) (bool, error) {
	path := pathOf(PathUsers, userID)
	resp, err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   path,
		user:   userID,
		pass:   password,
	})
	if err != nil {
		return false, err
	}
	switch {
	case resp.ok():
		return true, nil
	case resp.status == http.StatusUnauthorized,
		resp.status == http.StatusForbidden,
		resp.status == http.StatusNotFound:
		return false, nil
	default:
		return false, resp.fail(http.MethodGet, path)
	}
}
