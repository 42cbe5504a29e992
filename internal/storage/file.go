package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evermart/storefront/internal/log"
)

// FileStore persists the key-value map as a single JSON document, rewritten
// whole on every write. Writes go through a temp file and rename so a crash
// never leaves a half-written document behind.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

func NewFileStore(c context.Context, path string) (*FileStore, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewFileStore").
		Str("path", path).
		Logger()

	store := &FileStore{path: path, entries: map[string]json.RawMessage{}}

	logger = logger.With().Str(log.KeyProcess, "reading storage file").Logger()
	logger.Info().Msg("reading storage file")
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("failed reading storage file with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		logger.Info().Msg("storage file does not exist yet, starting empty")
		return store, nil
	}

	logger = logger.With().Str(log.KeyProcess, "unmarshaling storage file").Logger()
	logger.Info().Msg("unmarshaling storage file")
	err = json.Unmarshal(raw, &store.entries)
	if err != nil {
		err = fmt.Errorf("failed unmarshaling storage file with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("unmarshaled storage file")

	return store, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (s *FileStore) Set(c context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = json.RawMessage(value)
	return s.flush(c)
}

func (s *FileStore) Delete(c context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return s.flush(c)
}

func (s *FileStore) Clear(c context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]json.RawMessage{}
	return s.flush(c)
}

func (s *FileStore) flush(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore flush").
		Str("path", s.path).
		Logger()

	raw, err := json.Marshal(s.entries)
	if err != nil {
		err = fmt.Errorf("failed marshaling storage entries with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	dir := filepath.Dir(s.path)
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		err = fmt.Errorf("failed creating storage directory with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	tmp, err := os.CreateTemp(dir, ".storefront-*.json")
	if err != nil {
		err = fmt.Errorf("failed creating temp storage file with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	_, err = tmp.Write(raw)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		err = fmt.Errorf("failed writing temp storage file with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	err = tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		err = fmt.Errorf("failed closing temp storage file with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())
		err = fmt.Errorf("failed renaming temp storage file with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
