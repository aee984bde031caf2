package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/jeja2023/tp"
	"github.com/jeja2023/tp/clients/internal"
	"github.com/jeja2023/tp/errors"
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client covers the account endpoints. Login and registration go through the plain
// http client, everything else through the authenticated one.
type Client struct {
	baseURL string
	client  HTTPClient
	anon    *http.Client
}

func NewClient(c HTTPClient, anon *http.Client, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  c,
		anon:    anon,
	}
}

// Token exchanges the credentials for an access token with the OAuth2 password grant
// on /token.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	conf := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  fmt.Sprintf("%s/token", c.baseURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.anon)
	token, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", internal.Error(retrieveErr.Response.StatusCode, retrieveErr.Body)
		}
		return "", errors.New("could not reach the server", errors.WithCode(http.StatusBadGateway), errors.WithCause(err))
	}

	return token.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, r tp.Registration) (tp.User, error) {
	body, err := internal.JSONBody(r)
	if err != nil {
		return tp.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/users/", c.baseURL), body)
	if err != nil {
		return tp.User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.anon.Do(req)
	if err != nil {
		return tp.User{}, errors.New("could not reach the server", errors.WithCode(http.StatusBadGateway), errors.WithCause(err))
	}

	var user tp.User
	if err := internal.Decode(res, &user); err != nil {
		return tp.User{}, err
	}
	return user, nil
}

// Me returns the user owning the current token.
func (c *Client) Me(ctx context.Context) (tp.User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/users/me", c.baseURL), nil)
	if err != nil {
		return tp.User{}, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return tp.User{}, err
	}

	var user tp.User
	if err := internal.Decode(res, &user); err != nil {
		return tp.User{}, err
	}
	return user, nil
}
