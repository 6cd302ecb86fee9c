// Package backup keeps a JSON lines copy of every logged event and ships it
// to S3 as snappy-compressed objects.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Stream names, one file each.
const (
	StreamMessages       = "messages"
	StreamEditedMessages = "edited-messages"
	StreamUserEvents     = "user_events"
)

// FileExt is the extension of stream files.
const FileExt = ".jsonl"

// Appender writes one JSON document per line to a file per stream.
type Appender struct {
	dir string
	mu  sync.Mutex
}

// NewAppender creates dir if needed and returns an Appender writing into it.
func NewAppender(dir string) (*Appender, error) {
	if dir == "" {
		return nil, errors.New("backup directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Appender{dir: dir}, nil
}

// Dir is the directory holding the stream files.
func (a *Appender) Dir() string { return a.dir }

// Append writes v as a single line to the stream file.
func (a *Appender) Append(stream string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", stream, err)
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(a.dir, stream+FileExt), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open %s backup: %w", stream, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append %s record: %w", stream, err)
	}
	return f.Close()
}
