package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	glhttp "github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

func fastRetry(maxAttempts int) glhttp.Option {
	return glhttp.WithRetryConfig(maxAttempts, time.Millisecond, 5*time.Millisecond)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v4/projects", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "test-token", request.Header.Get("PRIVATE-TOKEN"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "gitlab-client-go", request.Header.Get("User-Agent"))

			writer.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(writer).Encode(map[string]string{"name": "project"})
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, glhttp.PrivateToken("test-token"))

		resp, err := client.Do(context.Background(), &glhttp.Request{
			Method: "GET",
			Path:   "/projects",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		require.NoError(t, resp.Decode(&result))
		assert.Equal(t, "project", result["name"])
	})

	t.Run("credential headers", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			credential *glhttp.Credential
			header     string
			value      string
		}{
			{name: "private token", credential: glhttp.PrivateToken("p"), header: "PRIVATE-TOKEN", value: "p"},
			{name: "job token", credential: glhttp.JobToken("j"), header: "JOB-TOKEN", value: "j"},
			{name: "oauth token", credential: glhttp.OAuthToken("o"), header: "Authorization", value: "Bearer o"},
		}

		for _, testCase := range tests {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
					assert.Equal(t, testCase.value, request.Header.Get(testCase.header))
					writer.WriteHeader(http.StatusOK)
				}))
				t.Cleanup(server.Close)

				client := glhttp.NewClient(server.URL, testCase.credential)

				_, err := client.Get(context.Background(), "/user", nil)
				require.NoError(t, err)
			})
		}
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v4/projects", request.URL.Path)
			assert.Equal(t, "page=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/projects", url.Values{"page": []string{"2"}})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("array query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, []string{"1", "2", "3"}, request.URL.Query()["array_var[]"])
			writer.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		query := gitlab.QueryParams{"array_var": gitlab.Array{1, 2, 3}}.ToValues()

		_, err := client.Get(context.Background(), "/projects", query)
		require.NoError(t, err)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "main", body["branch"])

			writer.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		resp, err := client.Post(context.Background(), "/projects/1/repository/changelog", map[string]string{"branch": "main"})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("GET never sends a body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			body, _ := io.ReadAll(request.Body)
			assert.Empty(t, body)
			assert.Empty(t, request.Header.Get("Content-Type"))
			writer.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &glhttp.Request{
			Method: "GET",
			Path:   "/projects",
			Body:   map[string]string{"ignored": "true"},
		})
		require.NoError(t, err)
	})

	t.Run("multipart request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !assert.NoError(t, request.ParseMultipartForm(1<<20)) {
				return
			}

			assert.Equal(t, "main", request.FormValue("branch"))

			file, header, err := request.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}

			defer func() { _ = file.Close() }()

			content, _ := io.ReadAll(file)
			assert.Equal(t, "notes.md", header.Filename)
			assert.Equal(t, "hello", string(content))

			writer.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &glhttp.Request{
			Method: "POST",
			Path:   "/projects/1/uploads",
			Body:   map[string]string{"branch": "main"},
			Files:  []glhttp.File{{Field: "file", Name: "notes.md", Content: []byte("hello")}},
		})
		require.NoError(t, err)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"404 Project Not Found"}`))
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/projects/invalid", nil)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.True(t, gitlab.IsNotFound(err))

		var httpErr *gitlab.HTTPError

		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "404 Project Not Found", httpErr.Message)
		assert.Equal(t, "Not Found", httpErr.Reason)
		assert.Equal(t, "GET", httpErr.Method)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "override", request.Header.Get("PRIVATE-TOKEN"))
			writer.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, glhttp.PrivateToken("default"))

		resp, err := client.Do(context.Background(), &glhttp.Request{
			Method: "GET",
			Path:   "/projects",
			Headers: map[string]string{
				"X-Custom-Header": "custom-value",
				"PRIVATE-TOKEN":   "override",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		t.Cleanup(server.Close)

		logger := &MockLogger{}
		client := glhttp.NewClient(server.URL, nil, glhttp.WithLogger(logger), glhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)

		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("pagination headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("X-Page", "1")
			writer.Header().Set("X-Total", "7")
			writer.Header().Set("X-Next-Page", "2")
			_, _ = writer.Write([]byte(`[]`))
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Pagination.Page)
		assert.Equal(t, 7, resp.Pagination.Total)
		assert.True(t, resp.Pagination.TotalKnown)
		assert.Equal(t, 2, resp.Pagination.NextPage)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*glhttp.Client, context.Context) (*glhttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "HEAD",
			method: "HEAD",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Head(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *glhttp.Client, ctx context.Context) (*glhttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/api/v4/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			t.Cleanup(server.Close)

			client := glhttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

func TestClient_DeleteReturnsRawBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/plain")
		_, _ = writer.Write([]byte("deleted"))
	}))
	t.Cleanup(server.Close)

	client := glhttp.NewClient(server.URL, nil)

	resp, err := client.Delete(context.Background(), "/projects/1/repository/merged_branches")
	require.NoError(t, err)
	assert.Equal(t, "deleted", string(resp.Body))
}

func newCountingServer(t *testing.T, calls *atomic.Int32, handler func(attempt int32, writer http.ResponseWriter)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		handler(calls.Add(1), writer)
	}))
	t.Cleanup(server.Close)

	return server
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("retries transient errors when enabled", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(attempt int32, writer http.ResponseWriter) {
			if attempt < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(5), glhttp.WithRetryTransient(true))

		resp, err := client.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), calls.Load())
	})

	for _, status := range []int{500, 502, 503, 504} {
		t.Run(fmt.Sprintf("does not retry %d by default", status), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
				writer.WriteHeader(status)
			})

			client := glhttp.NewClient(server.URL, nil, fastRetry(5))

			resp, err := client.Get(context.Background(), "/projects", nil)
			require.Error(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}

	t.Run("per-call override disables client default", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
			writer.WriteHeader(http.StatusBadGateway)
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(5), glhttp.WithRetryTransient(true))
		retry := false

		_, err := client.Do(context.Background(), &glhttp.Request{Method: "GET", Path: "/projects", Retry: &retry})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("per-call override enables retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(attempt int32, writer http.ResponseWriter) {
			if attempt < 2 {
				writer.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			writer.WriteHeader(http.StatusOK)
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(5))
		retry := true

		resp, err := client.Do(context.Background(), &glhttp.Request{Method: "GET", Path: "/projects", Retry: &retry})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("exhausted budget surfaces the last response", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
			writer.WriteHeader(http.StatusGatewayTimeout)
			_, _ = writer.Write([]byte(`{"message":"timeout"}`))
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(3), glhttp.WithRetryTransient(true))

		resp, err := client.Get(context.Background(), "/projects", nil)
		require.Error(t, err)
		assert.Equal(t, 504, resp.StatusCode)
		assert.Equal(t, int32(3), calls.Load())

		var httpErr *gitlab.HTTPError

		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "timeout", httpErr.Message)
	})

	t.Run("retries on rate limiting without transient flag", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(attempt int32, writer http.ResponseWriter) {
			if attempt < 2 {
				writer.Header().Set("Retry-After", "0")
				writer.WriteHeader(http.StatusTooManyRequests)

				return
			}

			writer.WriteHeader(http.StatusOK)
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(3))

		resp, err := client.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("ignores rate limiting when configured", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
			writer.WriteHeader(http.StatusTooManyRequests)
		})

		client := glhttp.NewClient(server.URL, nil, glhttp.WithRetryPolicy(&gitlab.RetryPolicy{
			MaxAttempts:     3,
			WaitMin:         time.Millisecond,
			WaitMax:         time.Millisecond,
			IgnoreRateLimit: true,
		}))

		_, err := client.Get(context.Background(), "/projects", nil)
		require.Error(t, err)
		assert.True(t, gitlab.IsRateLimited(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
			writer.WriteHeader(http.StatusBadRequest)
		})

		client := glhttp.NewClient(server.URL, nil, fastRetry(3), glhttp.WithRetryTransient(true))

		resp, err := client.Get(context.Background(), "/projects", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("logs retries", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(attempt int32, writer http.ResponseWriter) {
			if attempt < 2 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		})

		logger := &MockLogger{}
		client := glhttp.NewClient(server.URL, nil, fastRetry(3), glhttp.WithRetryTransient(true), glhttp.WithLogger(logger))

		_, err := client.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)
		require.Len(t, logger.logs, 1)
		assert.Equal(t, "Retrying HTTP request", logger.logs[0]["msg"])
	})

	t.Run("context cancellation stops waiting", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := newCountingServer(t, &calls, func(_ int32, writer http.ResponseWriter) {
			writer.WriteHeader(http.StatusServiceUnavailable)
		})

		client := glhttp.NewClient(server.URL, nil,
			glhttp.WithRetryConfig(gitlab.UnlimitedAttempts, time.Second, time.Second),
			glhttp.WithRetryTransient(true),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Get(ctx, "/projects", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("connection errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := glhttp.NewClient(serverURL, nil)

		_, err := client.Get(context.Background(), "/projects", nil)
		require.Error(t, err)

		var connErr *gitlab.ConnectionError

		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, "GET", connErr.Method)
	})
}

// redirectWithReason answers with a raw status line so the reason phrase
// can differ from the standard text.
func redirectWithReason(writer http.ResponseWriter, location string) {
	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		panic("response writer does not support hijacking")
	}

	conn, buf, err := hijacker.Hijack()
	if err != nil {
		panic(err)
	}

	defer func() { _ = conn.Close() }()

	_, _ = buf.WriteString("HTTP/1.1 302 Moved Temporarily\r\nLocation: " + location + "\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	_ = buf.Flush()
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Redirects(t *testing.T) {
	t.Parallel()

	t.Run("GET follows redirects", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path == "/api/v4/old" {
				redirectWithReason(writer, "/api/v4/new")

				return
			}

			assert.Equal(t, "/api/v4/new", request.URL.Path)
			_, _ = writer.Write([]byte(`{"ok":true}`))
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/old", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		t.Run(method+" reports redirects", func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				calls.Add(1)
				redirectWithReason(writer, "https://gitlab.example.com/api/v4/moved")
			}))
			t.Cleanup(server.Close)

			client := glhttp.NewClient(server.URL, nil)

			resp, err := client.Do(context.Background(), &glhttp.Request{Method: method, Path: "/projects/1", Body: map[string]string{}})
			require.Error(t, err)
			assert.Equal(t, 302, resp.StatusCode)
			assert.True(t, gitlab.IsRedirect(err))
			assert.Equal(t, int32(1), calls.Load())

			var redirectErr *gitlab.RedirectError

			require.ErrorAs(t, err, &redirectErr)
			assert.Equal(t, "Moved Temporarily", redirectErr.Reason)
			assert.Equal(t, server.URL+"/api/v4/projects/1", redirectErr.URL)
			assert.Equal(t, "https://gitlab.example.com/api/v4/moved", redirectErr.Location)
			assert.Contains(t, err.Error(), "Moved Temporarily")
			assert.Contains(t, err.Error(), server.URL+"/api/v4/projects/1")
			assert.Contains(t, err.Error(), "https://gitlab.example.com/api/v4/moved")
		})
	}

	t.Run("relative location is resolved", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			redirectWithReason(writer, "/api/v4/elsewhere")
		}))
		t.Cleanup(server.Close)

		client := glhttp.NewClient(server.URL, nil)

		_, err := client.Put(context.Background(), "/projects/1", nil)

		var redirectErr *gitlab.RedirectError

		require.ErrorAs(t, err, &redirectErr)
		assert.Equal(t, server.URL+"/api/v4/elsewhere", redirectErr.Location)
	})
}

func TestClient_BuildURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{name: "relative path", baseURL: "http://localhost", path: "/projects", want: "http://localhost/api/v4/projects"},
		{name: "missing leading slash", baseURL: "http://localhost", path: "projects", want: "http://localhost/api/v4/projects"},
		{name: "trailing slash on base", baseURL: "http://localhost/", path: "/projects", want: "http://localhost/api/v4/projects"},
		{name: "base with api prefix", baseURL: "http://localhost/api/v4", path: "/projects", want: "http://localhost/api/v4/projects"},
		{name: "path with api prefix", baseURL: "http://localhost", path: "/api/v4/projects", want: "http://localhost/api/v4/projects"},
		{name: "absolute http URL", baseURL: "http://localhost", path: "http://localhost/api/v4/projects?page=2", want: "http://localhost/api/v4/projects?page=2"},
		{name: "absolute https URL", baseURL: "http://localhost", path: "https://other.example.com/x", want: "https://other.example.com/x"},
		{name: "subpath install", baseURL: "https://example.com/gitlab", path: "/version", want: "https://example.com/gitlab/api/v4/version"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			client := glhttp.NewClient(testCase.baseURL, nil)
			assert.Equal(t, testCase.want, client.BuildURL(testCase.path))
		})
	}

	t.Run("api version", func(t *testing.T) {
		t.Parallel()

		client := glhttp.NewClient("http://localhost", nil, glhttp.WithAPIVersion("5"))
		assert.Equal(t, "http://localhost/api/v5", client.APIURL())
		assert.Equal(t, "http://localhost/api/v5/projects", client.BuildURL("/projects"))
	})
}

func TestClient_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"path":"` + request.URL.Path + `"}`))
	}))
	t.Cleanup(server.Close)

	client := glhttp.NewClient(server.URL, nil)

	group, ctx := errgroup.WithContext(context.Background())

	for i := range 16 {
		group.Go(func() error {
			path := fmt.Sprintf("/projects/%d", i)

			resp, err := client.Get(ctx, path, nil)
			if err != nil {
				return err
			}

			var body map[string]string

			err = resp.Decode(&body)
			if err != nil {
				return err
			}

			if body["path"] != "/api/v4"+path {
				return errors.New("response delivered to the wrong caller: " + body["path"])
			}

			return nil
		})
	}

	require.NoError(t, group.Wait())
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := glhttp.NewClient(server.URL, nil, glhttp.WithTimeout(20*time.Millisecond))

	_, err := client.Get(context.Background(), "/slow", nil)
	require.Error(t, err)

	var connErr *gitlab.ConnectionError

	require.ErrorAs(t, err, &connErr)
	assert.True(t, strings.Contains(err.Error(), "/api/v4/slow"))
}

func TestClient_TimeoutDoesNotLimitStreamedBody(t *testing.T) {
	t.Parallel()

	const chunks = 12

	chunk := []byte(strings.Repeat("x", 1024))

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		flusher, ok := writer.(http.Flusher)
		if !assert.True(t, ok) {
			return
		}

		writer.Header().Set("Content-Type", "application/octet-stream")
		writer.WriteHeader(http.StatusOK)

		for range chunks {
			_, _ = writer.Write(chunk)
			flusher.Flush()

			select {
			case <-request.Context().Done():
				return
			case <-time.After(25 * time.Millisecond):
			}
		}
	}))
	t.Cleanup(server.Close)

	client := glhttp.NewClient(server.URL, nil, glhttp.WithTimeout(100*time.Millisecond))

	var received int64

	resp, err := client.Do(context.Background(), &glhttp.Request{
		Path: "/projects/1/repository/archive",
		Mode: gitlab.Streamed(1024, func(data []byte) error {
			received += int64(len(data))

			return nil
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(chunks*1024), received)
	assert.Equal(t, int64(chunks*1024), resp.Streamed)
}
