package glclient

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/gitlab-client/internal/client"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// New creates a new GitLab API client. The config is not modified.
func New(config *gitlab.Config) (gitlab.Client, error) {
	if config == nil {
		return nil, gitlab.ErrConfigRequired
	}

	if config.URL == "" {
		return nil, gitlab.ErrURLRequired
	}

	resolved := *config
	resolved.URL = normalizeURL(config.URL)

	if resolved.Debug && resolved.Logger == nil {
		resolved.Logger = gitlab.NewConsoleLogger(nil, zerolog.DebugLevel)
	}

	c, err := client.New(&resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client authenticating with a personal, project or
// group access token.
func NewWithToken(url, token string) (gitlab.Client, error) {
	return New(&gitlab.Config{
		URL:          url,
		PrivateToken: token,
	})
}

// NewWithOAuthToken creates a client authenticating with an OAuth2 bearer
// token.
func NewWithOAuthToken(url, token string) (gitlab.Client, error) {
	return New(&gitlab.Config{
		URL:        url,
		OAuthToken: token,
	})
}

// NewWithJobToken creates a client authenticating with a CI job token.
func NewWithJobToken(url, token string) (gitlab.Client, error) {
	return New(&gitlab.Config{
		URL:      url,
		JobToken: token,
	})
}

// NewFromConfigFile creates a client for one instance of a configuration
// file. See LoadConfig for the file format.
func NewFromConfigFile(path, instance string) (gitlab.Client, error) {
	config, err := LoadConfig(path, instance)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return New(config)
}

// normalizeURL defaults the scheme to https.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	return url
}
