package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps artifacts and handles as flat files in one directory:
// {dir}/{key}.json for payloads and {dir}/{key}_url.txt for handles.
type FSStore struct {
	dir string
}

// NewFSStore creates the cache directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) artifactPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FSStore) handlePath(key string) string {
	return filepath.Join(s.dir, key+"_url.txt")
}

func (s *FSStore) LoadArtifact(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.artifactPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *FSStore) SaveArtifact(key string, payload []byte) error {
	// Write to a temp file then rename, so readers never see a torn payload.
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.artifactPath(key))
}

func (s *FSStore) LoadHandle(key string) (string, bool, error) {
	b, err := os.ReadFile(s.handlePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(b)), true, nil
}

func (s *FSStore) SaveHandle(key, handle string) error {
	return os.WriteFile(s.handlePath(key), []byte(handle), 0o644)
}

func (s *FSStore) DeleteHandle(key string) error {
	err := os.Remove(s.handlePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
