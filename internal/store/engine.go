// Package store implements the storage engines behind the kv.Engine
// interface: a log-structured engine with compaction and an adapter
// over an embedded bolt database, selected per data directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heysubinoy/adrakdb/pkg/kv"
)

// Engine kinds selectable at startup.
const (
	KindLog  = "log"
	KindBolt = "bolt"
)

// markerFile records which engine owns a data directory. The two
// engines use incompatible on-disk formats, so mixing them would
// silently corrupt data; the marker turns that into a startup error.
const markerFile = "ENGINE"

// Open opens the engine of the given kind in dir, creating the
// directory on first use and claiming it for that kind. Opening a
// directory claimed by a different kind fails with kv.ErrEngineMismatch
// before any data is touched.
func Open(kind, dir string, opts Options) (kv.Engine, error) {
	switch kind {
	case KindLog, KindBolt:
	default:
		return nil, fmt.Errorf("unknown engine kind %q", kind)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := claim(dir, kind); err != nil {
		return nil, err
	}

	if kind == KindBolt {
		return OpenBoltStore(dir, opts.Logger)
	}
	return OpenLogStore(dir, opts)
}

func claim(dir, kind string) error {
	path := filepath.Join(dir, markerFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(kind+"\n"), 0644); err != nil {
			return fmt.Errorf("write engine marker: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read engine marker: %w", err)
	}

	if prev := strings.TrimSpace(string(data)); prev != kind {
		return fmt.Errorf("%w: %s holds %q data, requested %q", kv.ErrEngineMismatch, dir, prev, kind)
	}
	return nil
}
