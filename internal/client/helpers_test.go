package client

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	internalhttp "github.com/fivetwenty-io/gitlab-client/internal/http"
	"github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
)

// NewTestClient creates a client for baseURL with no credential and a
// recording logger.
func NewTestClient(t *testing.T, baseURL string) (*Client, *MockLogger) {
	t.Helper()

	logger := &MockLogger{}

	client, err := New(&gitlab.Config{URL: baseURL, Logger: logger})
	require.NoError(t, err)

	return client, logger
}

// newRepositories builds a repositories client straight on the HTTP layer.
func newRepositories(baseURL string, perPage int) *RepositoriesClient {
	return NewRepositoriesClient(internalhttp.NewClient(baseURL, nil), perPage)
}

// MockLogger records every log call.
type MockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

func (m *MockLogger) record(level, msg string, fields map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, logEntry{Level: level, Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields map[string]interface{})  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields map[string]interface{})  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields map[string]interface{}) { m.record("error", msg, fields) }

// Warnings returns the messages logged at warn level.
func (m *MockLogger) Warnings() []string {
	return m.Messages("warn")
}

// Messages returns the messages logged at level, in order.
func (m *MockLogger) Messages(level string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []string

	for _, entry := range m.entries {
		if entry.Level == level {
			messages = append(messages, entry.Message)
		}
	}

	return messages
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		t.Errorf("encoding response: %v", err)
	}
}
