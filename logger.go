package macrotrack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LookupLogger is the interface for per-search lookup logging.
type LookupLogger interface {
	LogSearch(search SearchLog) error
}

// NewLookupLogFilePath returns a file path based on a cleaned up model name to make it easier to identify logs produced with various models.
func NewLookupLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// SearchLog represents a single search against the lookup service
type SearchLog struct {
	RequestID string       `json:"request_id"`
	Term      string       `json:"term"`
	Timestamp time.Time    `json:"timestamp"`
	Attempts  []AttemptLog `json:"attempts,omitempty"`
	Results   int          `json:"results"`
	Error     string       `json:"error,omitempty"`
}

// AttemptLog represents one call to the upstream generator within a search
type AttemptLog struct {
	Attempt  int           `json:"attempt"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
	Retrying bool          `json:"retrying,omitempty"`
}

// FileLookupLogger accumulates searches and flushes them to a writer at the end
type FileLookupLogger struct {
	mu       sync.Mutex
	searches []SearchLog
	writer   io.Writer
}

func NewFileLookupLogger(writer io.Writer) *FileLookupLogger {
	return &FileLookupLogger{
		searches: make([]SearchLog, 0),
		writer:   writer,
	}
}

// LogSearch buffers the search (does not flush immediately)
func (l *FileLookupLogger) LogSearch(search SearchLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searches = append(l.searches, search)
	return nil
}

// Flush writes all accumulated searches to the writer
func (l *FileLookupLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"lookup_session": map[string]any{
			"timestamp": time.Now(),
			"searches":  l.searches,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lookup log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write lookup log: %w", err)
	}

	l.searches = l.searches[:0]
	return nil
}

// NoOpLookupLogger discards all log entries
type NoOpLookupLogger struct{}

func NewNoOpLookupLogger() *NoOpLookupLogger {
	return &NoOpLookupLogger{}
}

func (nop *NoOpLookupLogger) LogSearch(search SearchLog) error {
	return nil
}

// StdoutLookupLogger logs each search as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutLookupLogger struct {
	out io.Writer
}

func NewStdoutLookupLogger() *StdoutLookupLogger {
	return &StdoutLookupLogger{out: os.Stdout}
}

func (l *StdoutLookupLogger) LogSearch(search SearchLog) error {
	data, err := json.Marshal(search)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
