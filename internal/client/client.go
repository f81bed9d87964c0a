package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Client implements the gitlab.Client interface.
type Client struct {
	httpClient *http.Client
	perPage    int

	// Resource clients
	repositories gitlab.RepositoriesClient
}

// createCredential picks the credential attached to every request.
// PrivateToken wins over OAuthToken, which wins over JobToken.
func createCredential(config *gitlab.Config) *http.Credential {
	switch {
	case config.PrivateToken != "":
		return http.PrivateToken(config.PrivateToken)
	case config.OAuthToken != "":
		return http.OAuthToken(config.OAuthToken)
	case config.JobToken != "":
		return http.JobToken(config.JobToken)
	default:
		return nil
	}
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *gitlab.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.APIVersion != "" {
		httpOpts = append(httpOpts, http.WithAPIVersion(config.APIVersion))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.Timeout))
	}

	if config.SkipTLSVerify {
		httpOpts = append(httpOpts, http.WithSkipTLSVerify(true))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.Retry != nil {
		httpOpts = append(httpOpts, http.WithRetryPolicy(config.Retry))
	}

	httpOpts = append(httpOpts, http.WithRetryTransient(config.RetryTransientErrors))

	return httpOpts
}

// New creates a GitLab API client from config.
func New(config *gitlab.Config) (*Client, error) {
	if config == nil {
		return nil, gitlab.ErrConfigRequired
	}

	if config.URL == "" {
		return nil, gitlab.ErrURLRequired
	}

	httpClient := http.NewClient(config.URL, createCredential(config), createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		perPage:    config.PerPage,
	}

	client.initializeResourceClients()

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.repositories = NewRepositoriesClient(c.httpClient, c.perPage)
}

// Repositories implements gitlab.Client.Repositories.
func (c *Client) Repositories() gitlab.RepositoriesClient {
	return c.repositories
}

// Version implements gitlab.Client.Version.
func (c *Client) Version(ctx context.Context) (*gitlab.Version, error) {
	resp, err := c.httpClient.Get(ctx, "/version", nil)
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	var version gitlab.Version

	err = resp.Decode(&version)
	if err != nil {
		return nil, fmt.Errorf("parsing version: %w", err)
	}

	return &version, nil
}

// APIURL returns the resolved API base URL.
func (c *Client) APIURL() string {
	return c.httpClient.APIURL()
}
