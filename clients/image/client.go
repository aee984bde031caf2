package image

import (
	"context"
	"fmt"
	"io"
	"net/http"

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

// Upload posts a multipart body built by the caller to /images/{taskID}.
func (c *Client) Upload(ctx context.Context, taskID int, body io.Reader, contentType string) (tp.Image, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/images/%d", c.baseURL, taskID), body)
	if err != nil {
		return tp.Image{}, err
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.client.Do(req)
	if err != nil {
		return tp.Image{}, err
	}

	var img tp.Image
	if err := internal.Decode(res, &img); err != nil {
		return tp.Image{}, err
	}
	return img, nil
}

func (c *Client) Get(ctx context.Context, id int) (tp.Image, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/images/%d", c.baseURL, id), nil)
	if err != nil {
		return tp.Image{}, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return tp.Image{}, err
	}

	var img tp.Image
	if err := internal.Decode(res, &img); err != nil {
		return tp.Image{}, err
	}
	return img, nil
}
