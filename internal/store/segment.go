package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const segmentExt = ".log"

// recordPos locates one record inside a segment: the segment generation,
// the byte offset of the record and its encoded length. Positions are
// plain values, not live file handles; a reader resolves the generation
// to an open file at the moment of the read.
type recordPos struct {
	gen    uint64
	offset int64
	size   int64
}

// record is the persisted form of one mutation. A remove is stored with
// Value nil, so the tombstone serializes without a "v" field.
type record struct {
	Key   string  `json:"k"`
	Value *string `json:"v,omitempty"`
}

func segmentPath(dir string, gen uint64) string {
	return filepath.Join(dir, strconv.FormatUint(gen, 10)+segmentExt)
}

// listGenerations returns the generation numbers of all segment files in
// dir, ascending.
func listGenerations(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read segment directory %s: %w", dir, err)
	}

	var gens []uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, segmentExt) {
			continue
		}
		gen, err := strconv.ParseUint(strings.TrimSuffix(name, segmentExt), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected segment file name %q: %w", name, err)
		}
		gens = append(gens, gen)
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	return gens, nil
}

// segmentWriter appends records to the active segment file and tracks
// the append offset so each write yields the record's position.
type segmentWriter struct {
	gen    uint64
	file   *os.File
	offset int64
}

func openSegmentWriter(dir string, gen uint64) (*segmentWriter, error) {
	path := segmentPath(dir, gen)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat segment %s: %w", path, err)
	}

	return &segmentWriter{gen: gen, file: file, offset: info.Size()}, nil
}

// append writes one encoded record and returns its position.
func (w *segmentWriter) append(buf []byte) (recordPos, error) {
	n, err := w.file.Write(buf)
	if err != nil {
		return recordPos{}, fmt.Errorf("append to segment %d: %w", w.gen, err)
	}
	pos := recordPos{gen: w.gen, offset: w.offset, size: int64(n)}
	w.offset += int64(n)
	return pos, nil
}

// sync flushes appended records to disk.
func (w *segmentWriter) sync() error {
	return w.file.Sync()
}

func (w *segmentWriter) close() error {
	return w.file.Close()
}
