package gitlab

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
)

// UnlimitedAttempts disables the attempt limit of a RetryPolicy.
const UnlimitedAttempts = -1

// Backoff computes the wait before attempt number attemptNum+1. resp is the
// response that triggered the retry and may be nil.
type Backoff func(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration

// RetryPolicy controls which failures are retried and how long to wait.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// UnlimitedAttempts removes the limit; zero uses the default.
	MaxAttempts int
	WaitMin     time.Duration
	WaitMax     time.Duration
	// TransientStatuses are retried when transient retries are enabled for
	// the call. Empty means 500, 502, 503 and 504.
	TransientStatuses []int
	// IgnoreRateLimit turns a 429 response into a final error instead of
	// waiting and retrying.
	IgnoreRateLimit bool
	// RetryConnectionErrors retries transport failures when transient
	// retries are enabled for the call.
	RetryConnectionErrors bool
	// Backoff defaults to DefaultBackoff.
	Backoff Backoff
}

// DefaultTransientStatuses returns the statuses retried by default.
func DefaultTransientStatuses() []int {
	return []int{
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       constants.DefaultMaxAttempts,
		WaitMin:           constants.DefaultRetryWaitMin,
		WaitMax:           constants.DefaultRetryWaitMax,
		TransientStatuses: DefaultTransientStatuses(),
		Backoff:           DefaultBackoff,
	}
}

// WithDefaults returns a copy of p with zero fields filled in. A nil policy
// yields DefaultRetryPolicy.
func (p *RetryPolicy) WithDefaults() *RetryPolicy {
	if p == nil {
		return DefaultRetryPolicy()
	}

	policy := *p
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = constants.DefaultMaxAttempts
	}

	if policy.WaitMin <= 0 {
		policy.WaitMin = constants.DefaultRetryWaitMin
	}

	if policy.WaitMax <= 0 {
		policy.WaitMax = constants.DefaultRetryWaitMax
	}

	if policy.WaitMax < policy.WaitMin {
		policy.WaitMax = policy.WaitMin
	}

	if len(policy.TransientStatuses) == 0 {
		policy.TransientStatuses = DefaultTransientStatuses()
	} else {
		policy.TransientStatuses = slices.Clone(policy.TransientStatuses)
	}

	if policy.Backoff == nil {
		policy.Backoff = DefaultBackoff
	}

	return &policy
}

// IsTransient reports whether status is in the transient set.
func (p *RetryPolicy) IsTransient(status int) bool {
	if p == nil || len(p.TransientStatuses) == 0 {
		return slices.Contains(DefaultTransientStatuses(), status)
	}

	return slices.Contains(p.TransientStatuses, status)
}

// Unlimited reports whether the policy has no attempt limit.
func (p *RetryPolicy) Unlimited() bool {
	return p != nil && p.MaxAttempts < 0
}

// DefaultBackoff waits as instructed by a rate limited or unavailable
// response (Retry-After, then RateLimit-Reset) and otherwise backs off
// exponentially from minWait, capped at maxWait.
func DefaultBackoff(minWait, maxWait time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if resp.Header.Get(constants.HeaderRetryAfter) == "" {
			if wait, ok := rateLimitResetWait(resp.Header, time.Now()); ok {
				return wait
			}
		}
	}

	return retryablehttp.DefaultBackoff(minWait, maxWait, attemptNum, resp)
}

// rateLimitResetWait reads the RateLimit-Reset unix timestamp.
func rateLimitResetWait(header http.Header, now time.Time) (time.Duration, bool) {
	resetStr := header.Get(constants.HeaderRateLimitReset)
	if resetStr == "" {
		return 0, false
	}

	resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return 0, false
	}

	wait := time.Unix(resetUnix, 0).Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait, true
}
