package capdec

import (
	"hash/crc32"
	"log/slog"
)

// Index maps CRC-32 checksums to candidate soundscript names.
//
// Candidates are deduplicated before hashing; when two distinct names
// collide on checksum the first-seen name wins and the collision is logged,
// never silently dropped. An Index is built once from candidate sources and
// is read-only during decoding.
type Index struct {
	logger     *slog.Logger
	seen       map[string]struct{}
	names      map[uint32]string
	collisions int
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// IndexWithLogger sets the logger for collision and load reporting.
// Defaults to slog.Default().
func IndexWithLogger(logger *slog.Logger) IndexOption {
	return func(ix *Index) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// NewIndex returns an empty candidate index.
func NewIndex(opts ...IndexOption) *Index {
	ix := &Index{
		logger: slog.Default(),
		seen:   make(map[string]struct{}),
		names:  make(map[uint32]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// AddNames adds literal candidate names.
func (ix *Index) AddNames(names ...string) {
	for _, name := range names {
		ix.add(name)
	}
}

// Lookup returns the candidate name for a checksum.
func (ix *Index) Lookup(sum uint32) (string, bool) {
	name, ok := ix.names[sum]
	return name, ok
}

// Len returns the number of distinct checksums in the index.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Collisions returns how many distinct candidate names collided with an
// earlier name's checksum.
func (ix *Index) Collisions() int {
	return ix.collisions
}

// add hashes one candidate into the index. Duplicate names are ignored;
// checksum collisions between distinct names keep the first-seen name.
func (ix *Index) add(name string) {
	if name == "" {
		return
	}
	if _, ok := ix.seen[name]; ok {
		return
	}
	ix.seen[name] = struct{}{}

	sum := crc32.ChecksumIEEE([]byte(name))
	if prev, ok := ix.names[sum]; ok {
		ix.collisions++
		ix.logger.Warn("candidate checksum collision, keeping first name",
			"checksum", sum, "kept", prev, "dropped", name)
		return
	}
	ix.names[sum] = name
}
