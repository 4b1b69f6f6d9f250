package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FailureLog appends one JSON line per failed row. It is safe for concurrent
// use, and a nil *FailureLog discards everything.
type FailureLog struct {
	mu   sync.Mutex
	file *os.File
}

// FailureEntry is one line of the failure log.
type FailureEntry struct {
	Time       string `json:"time"`
	Kind       Kind   `json:"kind"`
	RowID      string `json:"row_id,omitempty"`
	Status     Status `json:"status"`
	Subject    string `json:"subject"`
	Identifier string `json:"identifier"`
	Error      string `json:"error,omitempty"`
}

// OpenFailureLog opens path for append, creating parent directories. An
// empty path returns a nil log.
func OpenFailureLog(path string) (*FailureLog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open failure log: %w", err)
	}
	return &FailureLog{file: f}, nil
}

// Log writes e, stamping Time when it is empty.
func (l *FailureLog) Log(e FailureEntry) {
	if l == nil {
		return
	}
	if e.Time == "" {
		e.Time = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_, _ = l.file.Write(data)
	}
}

// Close closes the underlying file.
func (l *FailureLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
