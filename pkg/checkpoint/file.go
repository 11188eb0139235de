package checkpoint

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/agentstation/pricemap/internal/atomicfile"
	"github.com/agentstation/pricemap/pkg/errors"
)

// FileStore keeps the checkpoint in a JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the checkpoint file. A missing file means no checkpoint; an
// unreadable one is a precondition failure, never a fresh start.
func (s *FileStore) Load(_ context.Context) (*Checkpoint, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapPrecondition("checkpoint", "cannot read "+s.Path,
			errors.WrapPersistence("load", s.Path, err))
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.WrapPrecondition("checkpoint", "cannot decode "+s.Path,
			errors.WrapParse("json", s.Path, err))
	}
	return &cp, nil
}

// Save replaces the checkpoint file atomically.
func (s *FileStore) Save(_ context.Context, cp *Checkpoint) error {
	return atomicfile.WriteFile(s.Path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cp)
	})
}

// Delete removes the checkpoint file.
func (s *FileStore) Delete(_ context.Context) error {
	return atomicfile.Remove(s.Path)
}
