package gitlab

import (
	"context"
	"net/http"
	"time"
)

// Client is the root of the GitLab API client.
type Client interface {
	Repositories() RepositoriesClient
	Version(ctx context.Context) (*Version, error)
}

// RepositoriesClient covers the project repository endpoints.
//
// pid is either a numeric project ID (int) or a "namespace/project" path
// (string). Paths are escaped before they are placed in the URL.
type RepositoriesClient interface {
	// Tree lists files and directories. Without opts.All or opts.Page only
	// the first page is returned.
	Tree(ctx context.Context, pid any, opts *TreeOptions) ([]TreeNode, error)
	TreeCursor(ctx context.Context, pid any, opts *TreeOptions) (*ListCursor[TreeNode], error)

	Blob(ctx context.Context, pid any, sha string) (*Blob, error)
	// RawBlob returns the blob content. With a streamed mode the content is
	// delivered to the sink and the returned slice is nil.
	RawBlob(ctx context.Context, pid any, sha string, mode ResponseMode) ([]byte, error)

	Compare(ctx context.Context, pid any, from, to string, opts *CompareOptions) (*Compare, error)

	Contributors(ctx context.Context, pid any, opts *ContributorsOptions) ([]Contributor, error)
	ContributorsCursor(ctx context.Context, pid any, opts *ContributorsOptions) (*ListCursor[Contributor], error)

	// Archive downloads a repository archive. With a streamed mode the
	// archive is delivered to the sink and the returned slice is nil.
	Archive(ctx context.Context, pid any, opts *ArchiveOptions, mode ResponseMode) ([]byte, error)

	MergeBase(ctx context.Context, pid any, refs []string) (*Commit, error)
	DeleteMergedBranches(ctx context.Context, pid any) error

	Changelog(ctx context.Context, pid any, opts *ChangelogOptions) (*ChangelogData, error)
	CreateChangelog(ctx context.Context, pid any, opts *CreateChangelogOptions) error

	UpdateSubmodule(ctx context.Context, pid any, submodule string, opts *UpdateSubmoduleOptions) (*Commit, error)
}

// Config represents client configuration for building a gitlab.Client.
//
// # Authentication
//
// At most one credential is attached to every request, in this order of
// precedence: PrivateToken (PRIVATE-TOKEN header), OAuthToken
// (Authorization: Bearer) and JobToken (JOB-TOKEN header). With none set,
// requests are anonymous.
//
// # Retries
//
// RetryTransientErrors enables retrying 500, 502, 503 and 504 responses
// for every call; individual calls may override it. Rate limited responses
// (429) are retried independently of that flag unless
// Retry.IgnoreRateLimit is set.
type Config struct {
	// URL: base URL of the GitLab instance (e.g., "https://gitlab.com").
	// A trailing "/api/v4" is accepted and not duplicated.
	URL string
	// APIVersion: REST API version, "4" when empty.
	APIVersion string

	PrivateToken string
	OAuthToken   string
	JobToken     string

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Timeout: per-attempt limit on connecting and waiting for response
	// headers. Bodies, including streamed downloads, are not bounded by it;
	// use a context deadline for whole-call limits.
	Timeout time.Duration
	// SkipTLSVerify disables certificate verification. Intended for
	// self-signed development instances only.
	SkipTLSVerify bool
	// HTTPClient: optional client whose transport is reused. It is copied,
	// never mutated.
	HTTPClient *http.Client

	// PerPage: default page size for list calls that do not set one.
	PerPage int
	// RetryTransientErrors: default for the per-call retry flag.
	RetryTransientErrors bool
	// Retry: retry policy, DefaultRetryPolicy when nil.
	Retry *RetryPolicy

	// Debug enables request and response logging.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}
