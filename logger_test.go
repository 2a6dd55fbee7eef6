package macrotrack

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLookupLogger_Flush(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileLookupLogger(&buf)

	require.NoError(t, logger.LogSearch(SearchLog{
		RequestID: "req-1",
		Term:      "rice",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Attempts: []AttemptLog{
			{Attempt: 1, Error: "lookup service throttled", Retrying: true},
			{Attempt: 2},
		},
		Results: 2,
	}))
	require.NoError(t, logger.LogSearch(SearchLog{RequestID: "req-2", Term: "paneer", Error: "boom"}))
	assert.Zero(t, buf.Len(), "searches are buffered until flush")

	require.NoError(t, logger.Flush())

	var out struct {
		Session struct {
			Searches []SearchLog `json:"searches"`
		} `json:"lookup_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Session.Searches, 2)
	assert.Equal(t, "rice", out.Session.Searches[0].Term)
	assert.Len(t, out.Session.Searches[0].Attempts, 2)
	assert.True(t, out.Session.Searches[0].Attempts[0].Retrying)
	assert.Equal(t, "boom", out.Session.Searches[1].Error)

	buf.Reset()
	require.NoError(t, logger.Flush())
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Empty(t, out.Session.Searches)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFileLookupLogger_FlushError(t *testing.T) {
	logger := NewFileLookupLogger(failingWriter{})
	require.NoError(t, logger.LogSearch(SearchLog{Term: "rice"}))

	err := logger.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFileLookupLogger_NilWriter(t *testing.T) {
	logger := NewFileLookupLogger(nil)
	require.NoError(t, logger.LogSearch(SearchLog{Term: "rice"}))
	assert.NoError(t, logger.Flush())
}

func TestNoOpLookupLogger(t *testing.T) {
	assert.NoError(t, NewNoOpLookupLogger().LogSearch(SearchLog{Term: "rice"}))
}

func TestStdoutLookupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutLookupLogger{out: &buf}

	require.NoError(t, logger.LogSearch(SearchLog{RequestID: "a", Term: "rice", Results: 1}))
	require.NoError(t, logger.LogSearch(SearchLog{RequestID: "b", Term: "oats"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first SearchLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first.RequestID)
	assert.Equal(t, 1, first.Results)
}

func TestNewLookupLogFilePath(t *testing.T) {
	path := NewLookupLogFilePath("us.anthropic/Claude:v1")
	assert.True(t, strings.HasPrefix(path, "./logs/"))
	assert.True(t, strings.HasSuffix(path, ".us.anthropic_claude_v1.json"))
}
