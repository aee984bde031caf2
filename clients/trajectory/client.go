package trajectory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jeja2023/tp/clients/internal"
	"github.com/jeja2023/tp/errors"
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

// Excel asks the backend to build the trajectory spreadsheet of a task and returns
// the generated filename.
func (c *Client) Excel(ctx context.Context, taskID int) (string, error) {
	return c.generate(ctx, fmt.Sprintf("/trajectory/excel/%d", taskID))
}

// Report asks the backend to build the trajectory report of a task and returns the
// generated filename.
func (c *Client) Report(ctx context.Context, taskID int) (string, error) {
	return c.generate(ctx, fmt.Sprintf("/trajectory/report/%d", taskID))
}

func PreviewPath(filename string) string {
	return "/trajectory/preview/" + url.PathEscape(filename)
}

func DownloadPath(filename string) string {
	return "/trajectory/download-file/" + url.PathEscape(filename)
}

func RawPath(filename string) string {
	return "/download/" + url.PathEscape(filename)
}

// URL returns the absolute URL of a path relative to the API base.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Fetch streams the body found at path. The caller closes it.
func (c *Client) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.URL(path), nil)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if err := internal.Check(res); err != nil {
		res.Body.Close()
		return nil, err
	}
	return res.Body, nil
}

func (c *Client) generate(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.URL(path), nil)
	if err != nil {
		return "", err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}

	var generated struct {
		Filename string `json:"filename"`
		FilePath string `json:"file_path"`
	}
	if err := internal.Decode(res, &generated); err != nil {
		return "", err
	}
	if generated.Filename == "" {
		return "", errors.New("server did not return a filename", errors.WithCode(http.StatusBadGateway))
	}

	return generated.Filename, nil
}
