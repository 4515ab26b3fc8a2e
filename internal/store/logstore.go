package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/heysubinoy/adrakdb/pkg/kv"
)

// Defaults for the log engine's tuning knobs.
const (
	// DefaultMaxUncompactedBytes is the amount of superseded data in
	// sealed segments that triggers compaction.
	DefaultMaxUncompactedBytes = 1 << 20

	// DefaultMaxSegmentBytes is the active segment size at which the
	// engine rolls over to a fresh generation.
	DefaultMaxSegmentBytes = 4 << 20
)

// Options tune an engine opened by Open or OpenLogStore. Zero values
// fall back to the defaults above and to a no-op logger.
type Options struct {
	MaxUncompactedBytes int64
	MaxSegmentBytes     int64
	Logger              hclog.Logger
}

func (o *Options) fillDefaults() {
	if o.MaxUncompactedBytes == 0 {
		o.MaxUncompactedBytes = DefaultMaxUncompactedBytes
	}
	if o.MaxSegmentBytes == 0 {
		o.MaxSegmentBytes = DefaultMaxSegmentBytes
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
}

// LogStore is a log-structured implementation of kv.Engine.
//
// Every mutation is appended to the active segment file before the
// in-memory index is updated. The index maps each live key to the
// position of its latest set record. Superseded records accumulate in
// sealed segments until compaction rewrites the live data into a fresh
// generation and deletes the old files.
//
// One RWMutex serializes structural mutation: appends and index updates
// take the write lock, lookups take the read lock for the whole
// index-lookup-plus-file-read, so a reader can never observe a position
// whose segment a concurrent compaction has already deleted.
type LogStore struct {
	mu sync.RWMutex

	dir     string
	active  *segmentWriter
	readers map[uint64]*os.File
	index   map[string]recordPos

	// uncompacted counts bytes in sealed segments no longer reachable
	// from the index: superseded sets, tombstones and the records they
	// killed.
	uncompacted int64
	compacting  bool

	maxUncompacted int64
	maxSegment     int64
	logger         hclog.Logger
}

// Compile-time check to ensure LogStore implements kv.Engine.
var _ kv.Engine = (*LogStore)(nil)

// OpenLogStore opens or creates a log engine in dir, replaying all
// existing segments oldest first to rebuild the index and the
// uncompacted-bytes counter. A partial record at the tail of the newest
// segment (a crashed write) is truncated away; corruption anywhere else
// is fatal.
func OpenLogStore(dir string, opts Options) (*LogStore, error) {
	opts.fillDefaults()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &LogStore{
		dir:            dir,
		readers:        make(map[uint64]*os.File),
		index:          make(map[string]recordPos),
		maxUncompacted: opts.MaxUncompactedBytes,
		maxSegment:     opts.MaxSegmentBytes,
		logger:         opts.Logger,
	}

	gens, err := listGenerations(dir)
	if err != nil {
		return nil, err
	}

	for i, gen := range gens {
		if err := s.replaySegment(gen, i == len(gens)-1); err != nil {
			s.closeReaders()
			return nil, err
		}
	}

	// A fresh generation becomes the active segment, leaving everything
	// replayed above sealed.
	var activeGen uint64 = 1
	if len(gens) > 0 {
		activeGen = gens[len(gens)-1] + 1
	}
	if err := s.rollActive(activeGen); err != nil {
		s.closeReaders()
		return nil, err
	}

	s.logger.Info("log engine opened",
		"dir", dir, "segments", len(gens), "keys", len(s.index), "uncompacted", s.uncompacted)
	return s, nil
}

// Get returns the latest value set for key, reading exactly the bytes
// recorded in the index from the owning segment.
func (s *LogStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[key]
	if !ok {
		return "", false, nil
	}

	rec, err := s.readRecord(pos)
	if err != nil {
		return "", false, err
	}
	if rec.Value == nil {
		// The index must never point at a tombstone.
		return "", false, kv.ErrUnexpectedCommand
	}
	return *rec.Value, true, nil
}

// Set appends a set record and points the index at it. If the write
// pushes the uncompacted counter past its limit, compaction runs before
// Set returns.
func (s *LogStore) Set(key, value string) error {
	buf, err := json.Marshal(record{Key: key, Value: &value})
	if err != nil {
		return fmt.Errorf("encode set: %w", err)
	}

	s.mu.Lock()
	pos, err := s.appendLocked(buf)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if prev, ok := s.index[key]; ok {
		s.uncompacted += prev.size
	}
	s.index[key] = pos
	compact := s.needCompactionLocked()
	s.mu.Unlock()

	if compact {
		return s.compact()
	}
	return nil
}

// Remove appends a tombstone and drops the key from the index. Removing
// an absent key fails with kv.ErrKeyNotFound and writes nothing.
func (s *LogStore) Remove(key string) error {
	buf, err := json.Marshal(record{Key: key})
	if err != nil {
		return fmt.Errorf("encode remove: %w", err)
	}

	s.mu.Lock()
	prev, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return kv.ErrKeyNotFound
	}
	pos, err := s.appendLocked(buf)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	// Both the killed record and the tombstone itself are reclaimable.
	s.uncompacted += prev.size + pos.size
	delete(s.index, key)
	compact := s.needCompactionLocked()
	s.mu.Unlock()

	if compact {
		return s.compact()
	}
	return nil
}

// Close flushes the active segment and releases all file handles.
func (s *LogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.active != nil {
		if err := s.active.sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.active.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.active = nil
	}
	if err := s.closeReaders(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// appendLocked writes one encoded record to the active segment, rolling
// to a fresh generation first if the active file is over its size limit.
// Callers hold the write lock.
func (s *LogStore) appendLocked(buf []byte) (recordPos, error) {
	if s.active.offset >= s.maxSegment {
		if err := s.rollActive(s.active.gen + 1); err != nil {
			return recordPos{}, err
		}
	}
	pos, err := s.active.append(buf)
	if err != nil {
		return recordPos{}, err
	}
	if err := s.active.sync(); err != nil {
		return recordPos{}, fmt.Errorf("sync segment %d: %w", pos.gen, err)
	}
	return pos, nil
}

func (s *LogStore) needCompactionLocked() bool {
	if s.uncompacted <= s.maxUncompacted || s.compacting {
		return false
	}
	s.compacting = true
	return true
}

// rollActive seals the current active segment (if any) and starts a new
// one with the given generation, registering a read handle for it.
func (s *LogStore) rollActive(gen uint64) error {
	w, err := openSegmentWriter(s.dir, gen)
	if err != nil {
		return err
	}
	r, err := os.Open(segmentPath(s.dir, gen))
	if err != nil {
		w.close()
		return fmt.Errorf("open segment %d for reads: %w", gen, err)
	}

	if s.active != nil {
		if err := s.active.close(); err != nil {
			s.logger.Warn("failed to close sealed segment", "generation", s.active.gen, "error", err)
		}
	}
	s.active = w
	s.readers[gen] = r
	return nil
}

// readRecord resolves a position to its segment handle and decodes the
// record stored there. Callers hold at least the read lock.
func (s *LogStore) readRecord(pos recordPos) (record, error) {
	r, ok := s.readers[pos.gen]
	if !ok {
		return record{}, fmt.Errorf("no open segment for generation %d", pos.gen)
	}
	buf := make([]byte, pos.size)
	if _, err := r.ReadAt(buf, pos.offset); err != nil {
		return record{}, fmt.Errorf("read segment %d at %d: %w", pos.gen, pos.offset, err)
	}
	var rec record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return record{}, fmt.Errorf("decode record in segment %d at %d: %w", pos.gen, pos.offset, err)
	}
	return rec, nil
}

// replaySegment applies every record of one segment file to the index
// in file order. A decode failure before EOF means a dangling partial
// record: in the newest segment it is truncated at the last good record
// boundary, anywhere else it is unrecoverable corruption.
func (s *LogStore) replaySegment(gen uint64, newest bool) error {
	path := segmentPath(s.dir, gen)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open segment %s: %w", path, err)
	}
	s.readers[gen] = f

	dec := json.NewDecoder(f)
	var tail int64
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !newest {
				return fmt.Errorf("segment %d corrupted at offset %d: %w", gen, tail, err)
			}
			s.logger.Warn("truncating dangling record at segment tail",
				"generation", gen, "offset", tail, "error", err)
			if err := os.Truncate(path, tail); err != nil {
				return fmt.Errorf("truncate segment %d: %w", gen, err)
			}
			return nil
		}

		pos := recordPos{gen: gen, offset: tail, size: dec.InputOffset() - tail}
		if prev, ok := s.index[rec.Key]; ok {
			s.uncompacted += prev.size
		}
		if rec.Value != nil {
			s.index[rec.Key] = pos
		} else {
			s.uncompacted += pos.size
			delete(s.index, rec.Key)
		}
		tail = dec.InputOffset()
	}
}

func (s *LogStore) closeReaders() error {
	var firstErr error
	for gen, r := range s.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.readers, gen)
	}
	return firstErr
}
