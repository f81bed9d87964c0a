package constants

import "time"

// API defaults.
const (
	// DefaultAPIVersion is the GitLab REST API version used when none is configured.
	DefaultAPIVersion = "4"

	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "gitlab-client-go"

	// MaxRedirects bounds redirect chains followed for safe methods.
	MaxRedirects = 10
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds connecting and waiting for response headers.
	DefaultHTTPTimeout = 30 * time.Second

	// DialKeepAlive is the TCP keep-alive period for pooled connections.
	DialKeepAlive = 30 * time.Second
)

// Retry defaults.
const (
	// DefaultMaxAttempts is the total number of attempts for a retried call.
	DefaultMaxAttempts = 10

	// DefaultRetryWaitMin is the first backoff interval.
	DefaultRetryWaitMin = 100 * time.Millisecond

	// DefaultRetryWaitMax caps exponential backoff.
	DefaultRetryWaitMax = 30 * time.Second
)

// Pagination and streaming.
const (
	// DefaultChunkSize is the streamed-response chunk size in bytes.
	DefaultChunkSize = 1024

	// MaxErrorBodySize limits how much of an error response body is kept.
	MaxErrorBodySize = 64 * 1024
)

// Pagination response headers.
const (
	HeaderPage       = "X-Page"
	HeaderPerPage    = "X-Per-Page"
	HeaderNextPage   = "X-Next-Page"
	HeaderPrevPage   = "X-Prev-Page"
	HeaderTotal      = "X-Total"
	HeaderTotalPages = "X-Total-Pages"
	HeaderLink       = "Link"
)

// Rate limit response headers.
const (
	HeaderRetryAfter     = "Retry-After"
	HeaderRateLimitReset = "RateLimit-Reset"
)

// Credential headers.
const (
	HeaderPrivateToken  = "PRIVATE-TOKEN"
	HeaderJobToken      = "JOB-TOKEN"
	HeaderAuthorization = "Authorization"
)

// Content types.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)
