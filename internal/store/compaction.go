package store

import (
	"fmt"
	"os"
)

// compact rewrites every live record from sealed segments into a fresh
// compaction generation, then deletes the superseded segment files.
//
// Only the bookkeeping runs under the write lock: allocating the
// compaction generation, rolling the active segment past it and
// snapshotting the live index entries. The record copying happens with
// the lock released so reads and writes keep flowing; each copied
// record's index entry is swapped under the lock only if a concurrent
// write has not superseded it in the meantime. The old files are
// deleted last, under the lock, so no in-flight reader can hold a
// position into them.
func (s *LogStore) compact() error {
	defer func() {
		s.mu.Lock()
		s.compacting = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	compGen := s.active.gen + 1
	comp, err := openSegmentWriter(s.dir, compGen)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	sealed := false
	defer func() {
		if !sealed {
			comp.close()
		}
	}()

	compReader, err := os.Open(segmentPath(s.dir, compGen))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("open compaction segment for reads: %w", err)
	}
	s.readers[compGen] = compReader

	// New writes land in a generation above the compaction output.
	if err := s.rollActive(compGen + 1); err != nil {
		s.mu.Unlock()
		return err
	}
	s.uncompacted = 0

	live := make(map[string]recordPos, len(s.index))
	for key, pos := range s.index {
		if pos.gen < compGen {
			live[key] = pos
		}
	}
	var oldGens []uint64
	for gen := range s.readers {
		if gen < compGen {
			oldGens = append(oldGens, gen)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("compaction started", "generation", compGen, "live", len(live), "sealed", len(oldGens))

	for key, pos := range live {
		buf := make([]byte, pos.size)
		s.mu.RLock()
		r, ok := s.readers[pos.gen]
		if ok {
			_, err = r.ReadAt(buf, pos.offset)
		}
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("compaction: no open segment for generation %d", pos.gen)
		}
		if err != nil {
			return fmt.Errorf("compaction copy of segment %d: %w", pos.gen, err)
		}

		newPos, err := comp.append(buf)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if cur, ok := s.index[key]; ok && cur == pos {
			s.index[key] = newPos
		} else {
			// Superseded while copying; the fresh copy is already dead.
			s.uncompacted += newPos.size
		}
		s.mu.Unlock()
	}

	if err := comp.sync(); err != nil {
		return fmt.Errorf("sync compaction segment: %w", err)
	}
	sealed = true
	if err := comp.close(); err != nil {
		return fmt.Errorf("seal compaction segment: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, gen := range oldGens {
		if r := s.readers[gen]; r != nil {
			r.Close()
		}
		delete(s.readers, gen)
		if err := os.Remove(segmentPath(s.dir, gen)); err != nil {
			return fmt.Errorf("remove sealed segment %d: %w", gen, err)
		}
	}

	s.logger.Debug("compaction finished", "generation", compGen, "removed", len(oldGens))
	return nil
}
