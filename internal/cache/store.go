// Package cache persists completed external-job artifacts and in-flight
// resumption handles, keyed by input identity. Per identity key at most one
// complete artifact and at most one handle exist at a time; a complete
// artifact always takes precedence over a handle.
package cache

import (
	"fmt"

	"github.com/joseph-ayodele/submittal-extractor/internal/common"
)

// Store is a key -> blob store with a side slot for resumption handles.
// Backends are swappable without touching orchestration logic.
type Store interface {
	// LoadArtifact returns the completed payload for key, if present.
	LoadArtifact(key string) ([]byte, bool, error)
	// SaveArtifact persists the completed payload for key.
	SaveArtifact(key string, payload []byte) error
	// LoadHandle returns the persisted resumption handle for key, if present.
	LoadHandle(key string) (string, bool, error)
	// SaveHandle persists the resumption handle for key.
	SaveHandle(key, handle string) error
	// DeleteHandle removes the resumption handle for key; absent is not an error.
	DeleteHandle(key string) error
}

// New builds a Store from configuration.
func New(cfg common.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSStore(cfg.Dir)
	case "sqlite":
		return NewSQLiteStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", cfg.Backend)
	}
}
