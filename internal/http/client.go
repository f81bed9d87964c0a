package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/gitlab-client/internal/constants"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// Static errors for err113 compliance.
var (
	ErrTooManyRedirects    = errors.New("stopped after too many redirects")
	ErrUnsupportedFormBody = errors.New("multipart body must be a map of fields")
)

// Credential is the single authentication header attached to every request.
type Credential struct {
	Header string
	Value  string
}

// PrivateToken returns a PRIVATE-TOKEN credential.
func PrivateToken(token string) *Credential {
	return &Credential{Header: constants.HeaderPrivateToken, Value: token}
}

// JobToken returns a JOB-TOKEN credential.
func JobToken(token string) *Credential {
	return &Credential{Header: constants.HeaderJobToken, Value: token}
}

// OAuthToken returns a bearer credential.
func OAuthToken(token string) *Credential {
	return &Credential{Header: constants.HeaderAuthorization, Value: "Bearer " + token}
}

// File is a file part of a multipart request.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Request represents an API request. It is built per call and not
// modified by the client.
type Request struct {
	Method string
	// Path is relative to the API base, or an absolute URL.
	Path  string
	Query url.Values
	// Body is JSON encoded. It is never sent with GET or HEAD.
	Body interface{}
	// Files switches the request to multipart/form-data; Body then
	// supplies the form fields.
	Files   []File
	Headers map[string]string
	Mode    gitlab.ResponseMode
	// Retry overrides the client's transient retry default for this call.
	Retry *bool
}

// Response represents a final API response.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is empty for streamed responses.
	Body []byte
	URL  string
	// Streamed counts bytes handed to the sink.
	Streamed   int64
	Pagination gitlab.Pagination
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return &gitlab.ParsingError{URL: r.URL, ContentType: r.Header.Get("Content-Type"), Err: err}
	}

	return nil
}

// Client dispatches requests against one GitLab base URL. It is safe for
// concurrent use; retry state lives in each call.
type Client struct {
	urls       urlBuilder
	apiVersion string
	httpClient *http.Client
	credential *Credential
	userAgent  string
	logger     gitlab.Logger
	debug      bool

	retryPolicy    *gitlab.RetryPolicy
	retryTransient bool

	baseHTTPClient *http.Client
	timeout        time.Duration
	skipTLSVerify  bool
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion sets the REST API version.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger gitlab.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryPolicy replaces the retry policy. Zero fields take defaults.
func WithRetryPolicy(policy *gitlab.RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy.WithDefaults()
	}
}

// WithRetryConfig sets the attempt budget and backoff bounds.
func WithRetryConfig(maxAttempts int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		policy := *c.retryPolicy
		policy.MaxAttempts = maxAttempts
		policy.WaitMin = waitMin
		policy.WaitMax = waitMax
		c.retryPolicy = policy.WithDefaults()
	}
}

// WithRetryTransient sets whether transient server errors are retried by
// default.
func WithRetryTransient(retry bool) Option {
	return func(c *Client) {
		c.retryTransient = retry
	}
}

// WithHTTPClient reuses the transport of client. The client is copied.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.baseHTTPClient = client
	}
}

// WithTimeout bounds connecting and waiting for response headers on each
// attempt. Response bodies are read without a deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithSkipTLSVerify disables certificate verification.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		c.skipTLSVerify = skip
	}
}

// NewClient creates a new HTTP client for baseURL. credential may be nil
// for anonymous access.
func NewClient(baseURL string, credential *Credential, opts ...Option) *Client {
	client := &Client{
		apiVersion:  constants.DefaultAPIVersion,
		credential:  credential,
		userAgent:   constants.DefaultUserAgent,
		logger:      gitlab.NoopLogger{},
		retryPolicy: gitlab.DefaultRetryPolicy(),
		timeout:     constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.urls = newURLBuilder(baseURL, client.apiVersion)
	client.httpClient = client.newHTTPClient()

	return client
}

func (c *Client) newHTTPClient() *http.Client {
	var httpClient http.Client

	if c.baseHTTPClient != nil {
		httpClient = *c.baseHTTPClient
	} else {
		transport := cleanhttp.DefaultPooledTransport()
		if c.skipTLSVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed instances
		}

		// The timeout covers connecting and waiting for headers only; body
		// reads are bounded by the caller's context.
		if c.timeout > 0 {
			dialer := &net.Dialer{Timeout: c.timeout, KeepAlive: constants.DialKeepAlive}
			transport.DialContext = dialer.DialContext
			transport.ResponseHeaderTimeout = c.timeout
		}

		httpClient.Transport = transport
	}

	httpClient.CheckRedirect = checkRedirect

	return &httpClient
}

// checkRedirect follows redirects for GET and HEAD only. Other methods get
// the redirect response back so it can be reported.
func checkRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) >= constants.MaxRedirects {
		return fmt.Errorf("%w: %d", ErrTooManyRedirects, constants.MaxRedirects)
	}

	if !isSafeMethod(via[0].Method) {
		return http.ErrUseLastResponse
	}

	return nil
}

// BuildURL returns the absolute URL for path.
func (c *Client) BuildURL(path string) string {
	return c.urls.build(path)
}

// APIURL returns the API base URL.
func (c *Client) APIURL() string {
	return c.urls.apiURL()
}

// Logger returns the configured logger.
func (c *Client) Logger() gitlab.Logger {
	return c.logger
}

// Do sends the request, retrying as the policy allows, and normalizes the
// response body according to req.Mode. A non-2xx response is returned
// together with its error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	err := req.Mode.Validate()
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.requestURL(req)
	if err != nil {
		return nil, err
	}

	retryReq, err := c.newRequest(ctx, method, fullURL, req)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": method,
			"url":    fullURL,
		})
	}

	start := time.Now()

	httpResp, err := c.retryClient(req).Do(retryReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, fullURL, ctxErr)
		}

		return nil, &gitlab.ConnectionError{Method: method, URL: fullURL, Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		URL:        fullURL,
		Pagination: gitlab.ParsePagination(httpResp.Header),
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      method,
			"url":         fullURL,
			"status_code": httpResp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	if !isSuccess(httpResp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, constants.MaxErrorBodySize))
		resp.Body = body

		return resp, errorFromResponse(method, httpResp, resp)
	}

	err = normalize(httpResp, resp, req.Mode)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

func (c *Client) requestURL(req *Request) (string, error) {
	fullURL := c.urls.build(req.Path)
	if len(req.Query) == 0 {
		return fullURL, nil
	}

	parsed, err := url.Parse(fullURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", fullURL, err)
	}

	query := parsed.Query()

	for key, values := range req.Query {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (c *Client) newRequest(ctx context.Context, method, fullURL string, req *Request) (*retryablehttp.Request, error) {
	var (
		body        interface{}
		contentType string
	)

	switch {
	case isSafeMethod(method):
	case len(req.Files) > 0:
		payload, formType, err := encodeMultipart(req.Body, req.Files)
		if err != nil {
			return nil, err
		}

		body, contentType = payload, formType
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		body, contentType = payload, constants.ContentTypeJSON
	}

	retryReq, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Mode.Kind == gitlab.ResponseParsed {
		retryReq.Header.Set("Accept", constants.ContentTypeJSON)
	}

	if contentType != "" {
		retryReq.Header.Set("Content-Type", contentType)
	}

	retryReq.Header.Set("User-Agent", c.userAgent)

	if c.credential != nil && c.credential.Value != "" {
		retryReq.Header.Set(c.credential.Header, c.credential.Value)
	}

	for key, value := range req.Headers {
		retryReq.Header.Set(key, value)
	}

	return retryReq, nil
}

func encodeMultipart(body interface{}, files []File) ([]byte, string, error) {
	fields, err := formFields(body)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range fields[key] {
			err = writer.WriteField(key, value)
			if err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", key, err)
			}
		}
	}

	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", file.Field, err)
		}

		_, err = part.Write(file.Content)
		if err != nil {
			return nil, "", fmt.Errorf("failed to write form file %s: %w", file.Field, err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func formFields(body interface{}) (url.Values, error) {
	switch fields := body.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return fields, nil
	case gitlab.QueryParams:
		return fields.ToValues(), nil
	case map[string]interface{}:
		return gitlab.QueryParams(fields).ToValues(), nil
	case map[string]string:
		values := url.Values{}
		for key, value := range fields {
			values.Set(key, value)
		}

		return values, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedFormBody, body)
	}
}

// retryClient builds the per-call retry loop around the shared transport.
func (c *Client) retryClient(req *Request) *retryablehttp.Client {
	policy := c.retryPolicy

	transient := c.retryTransient
	if req.Retry != nil {
		transient = *req.Retry
	}

	retryMax := policy.MaxAttempts - 1
	if policy.Unlimited() {
		retryMax = math.MaxInt
	}

	return &retryablehttp.Client{
		HTTPClient:   c.httpClient,
		RetryWaitMin: policy.WaitMin,
		RetryWaitMax: policy.WaitMax,
		RetryMax:     retryMax,
		CheckRetry:   checkRetry(policy, transient),
		Backoff:      retryablehttp.Backoff(policy.Backoff),
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		RequestLogHook: func(_ retryablehttp.Logger, httpReq *http.Request, attempt int) {
			if attempt == 0 {
				return
			}

			c.logger.Warn("Retrying HTTP request", map[string]interface{}{
				"method":  httpReq.Method,
				"url":     httpReq.URL.String(),
				"attempt": attempt + 1,
			})
		},
	}
}

// checkRetry retries rate limited responses unless the policy ignores
// them, and transient statuses and connection errors only when transient
// retries are enabled for the call.
func checkRetry(policy *gitlab.RetryPolicy, transient bool) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		if err != nil {
			return transient && policy.RetryConnectionErrors, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return !policy.IgnoreRateLimit, nil
		}

		return transient && policy.IsTransient(resp.StatusCode), nil
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodHead,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request. The body is returned raw.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
		Mode:   gitlab.Raw(),
	})
}
