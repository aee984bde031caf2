package task

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/clients/internal"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	client  HTTPClient
}

func NewClient(c HTTPClient, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  c,
	}
}

func (c *Client) List(ctx context.Context) ([]tp.Task, error) {
	var tasks []tp.Task
	err := c.call(ctx, "GET", "/tasks/", nil, &tasks)
	return tasks, err
}

func (c *Client) Get(ctx context.Context, id int) (tp.Task, error) {
	var task tp.Task
	err := c.call(ctx, "GET", fmt.Sprintf("/tasks/%d", id), nil, &task)
	return task, err
}

func (c *Client) Create(ctx context.Context, in tp.TaskInput) (tp.Task, error) {
	var task tp.Task
	err := c.call(ctx, "POST", "/tasks/", in, &task)
	return task, err
}

func (c *Client) Update(ctx context.Context, id int, in tp.TaskInput) (tp.Task, error) {
	var task tp.Task
	err := c.call(ctx, "PUT", fmt.Sprintf("/tasks/%d", id), in, &task)
	return task, err
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/tasks/%d", id), nil, nil)
}

func (c *Client) Images(ctx context.Context, id int) ([]tp.Image, error) {
	var images []tp.Image
	err := c.call(ctx, "GET", fmt.Sprintf("/tasks/%d/images", id), nil, &images)
	return images, err
}

func (c *Client) UserPermission(ctx context.Context, id int) (tp.UserPermission, error) {
	var perm tp.UserPermission
	err := c.call(ctx, "GET", fmt.Sprintf("/tasks/%d/user-permission", id), nil, &perm)
	return perm, err
}

func (c *Client) Permissions(ctx context.Context, id int) ([]tp.Permission, error) {
	var perms []tp.Permission
	err := c.call(ctx, "GET", fmt.Sprintf("/tasks/%d/permissions", id), nil, &perms)
	return perms, err
}

func (c *Client) Share(ctx context.Context, id int, username string, perm tp.PermissionType) error {
	body := map[string]interface{}{
		"username":        username,
		"permission_type": perm,
	}
	return c.call(ctx, "POST", fmt.Sprintf("/tasks/%d/permissions/", id), body, nil)
}

func (c *Client) Revoke(ctx context.Context, id int, username string) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/tasks/%d/permissions/%s", id, url.PathEscape(username)), nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := internal.JSONBody(in)
		if err != nil {
			return err
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}

	return internal.Decode(res, out)
}
