package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	stokererrors "stoker/internal/errors"
	"stoker/internal/httpclient"
	"stoker/internal/logging"
)

const (
	// Token endpoint and installed-app client credentials of the Gemini CLI
	// OAuth application. These are public by design for installed apps; the
	// secret is the user's refresh token, never these constants.
	googleTokenURL = "https://oauth2.googleapis.com/token"
	clientID       = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"
	clientSecret   = "d-FL95Q19q7MQmFpd7hHD0Ty"

	defaultTimeout = 10 * time.Second
)

// Client exchanges a long-lived refresh token for a short-lived access token.
// It performs no retry of its own; the scheduler's retry layer owns recovery.
type Client struct {
	conf    *oauth2.Config
	timeout time.Duration
	logger  logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTokenURL overrides the token-exchange endpoint.
func WithTokenURL(url string) Option {
	return func(c *Client) {
		c.conf.Endpoint.TokenURL = url
	}
}

// NewClient creates a token-exchange client.
func NewClient(timeout time.Duration, logger logging.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: googleTokenURL},
		},
		timeout: timeout,
		logger:  logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Exchange trades refreshToken for a fresh access token. The access token is
// short-lived and must not be persisted or reused across runs. Any transport
// failure or a response without a bearer token yields an AuthError.
func (c *Client) Exchange(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", stokererrors.NewAuthError(errors.New("empty refresh token"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpclient.New(c.timeout))

	source := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", stokererrors.NewAuthError(err)
	}
	if token.AccessToken == "" {
		return "", stokererrors.NewAuthError(errors.New("token response carries no access token"))
	}

	c.logger.Debug("Exchanged refresh token, access token expires %s", token.Expiry.Format(time.RFC3339))
	return token.AccessToken, nil
}
