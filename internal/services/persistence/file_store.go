package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

// FileStore salva lo stato in un file su un afero.Fs (OS in produzione, in memoria nei test).
type FileStore struct {
	fs    afero.Fs
	dir   string
	name  string
	codec Codec
}

func NewFileStore(fsys afero.Fs, dir, name string, codec Codec) *FileStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	if name == "" {
		name = "red_monitoreo.dat"
	}
	return &FileStore{fs: fsys, dir: dir, name: name, codec: codec}
}

func (s *FileStore) Path() string { return filepath.Join(s.dir, s.name) }

// Save scrive su un file temporaneo e poi rinomina: un lettore non vede mai un file a metà.
func (s *FileStore) Save(ctx context.Context, state model.NetworkState) error {
	path := s.Path()
	if err := ctx.Err(); err != nil {
		return writeErr(path, CodeIO, err)
	}
	data, err := s.codec.Marshal(state)
	if err != nil {
		return writeErr(path, CodeCodec, fmt.Errorf("encode %s: %w", s.codec.Name(), err))
	}
	if s.dir != "" {
		if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
			return writeErr(path, CodeIO, err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return writeErr(path, CodeIO, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return writeErr(path, CodeIO, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (model.NetworkState, error) {
	var state model.NetworkState
	path := s.Path()
	if err := ctx.Err(); err != nil {
		return state, readErr(path, CodeIO, err)
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, readErr(path, CodeIO, fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return state, readErr(path, CodeIO, err)
	}
	if err := s.codec.Unmarshal(data, &state); err != nil {
		return model.NetworkState{}, readErr(path, CodeCodec, fmt.Errorf("decode %s: %w", s.codec.Name(), err))
	}
	return state, nil
}
