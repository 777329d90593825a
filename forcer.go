package capdec

import (
	"fmt"
	"hash/crc32"
	"math/bits"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/captiontools/capdec/internal/crc32poly"
)

// forceAlphabet is the set of characters a forced identifier may contain
// beyond its skeleton. Matching the compiler's lowercased hashing keeps the
// forced name stable through recompilation.
const forceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	// patchLen is the size of the trailing patch zone the algebra solves
	// for. Four bytes carry exactly the 32 bits needed to move the CRC
	// anywhere.
	patchLen = 4

	// patchSentinel initializes the patch zone before solving.
	patchSentinel = "0000"

	// suffixLen is the number of enumerated annotation characters between
	// the skeleton and the patch zone.
	suffixLen = 3
)

// ForceCRC32 appends characters to skeleton so that the result's CRC-32
// equals target and every appended character is a lowercase alphanumeric.
//
// The search enumerates a 3-character annotation suffix over the legal
// alphabet; for each candidate a 4-byte patch is solved in closed form over
// the CRC-32 generator field, and the candidate is accepted when the
// patched bytes all land inside the alphabet. The first accepting candidate
// in enumeration order is returned regardless of worker count.
//
// Returns ErrExhausted when no candidate in the bounded space yields a
// legal patch, and ErrVerification if the result fails its checksum
// recheck (an internal defect).
func ForceCRC32(skeleton string, target uint32, opts ...ForceOption) (string, error) {
	cfg := forceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	inv, err := crc32poly.ReciprocalMod(8 * patchLen)
	if err != nil {
		// The generator is coprime to every power of x; this cannot fire
		// for a correct engine.
		return "", fmt.Errorf("%w: %v", ErrVerification, err)
	}

	base := len(forceAlphabet)
	count := base * base * base

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	best := -1
	if workers <= 1 {
		for i := range count {
			if _, ok := forceCandidate(skeleton, i, target, inv); ok {
				best = i
				break
			}
		}
	} else {
		best = parallelSearch(skeleton, target, inv, count, workers)
	}
	if best < 0 {
		return "", fmt.Errorf("%w: target %08x, skeleton %q", ErrExhausted, target, skeleton)
	}

	forced, ok := forceCandidate(skeleton, best, target, inv)
	if !ok || crc32.ChecksumIEEE([]byte(forced)) != target {
		return "", fmt.Errorf("%w: target %08x, got %q", ErrVerification, target, forced)
	}
	return forced, nil
}

// parallelSearch strides the candidate space across workers and returns the
// lowest accepting candidate index, or -1. Workers stop once their stride
// passes the best index found so far, which keeps the result identical to
// the sequential scan.
func parallelSearch(skeleton string, target uint32, inv uint64, count, workers int) int {
	best := atomic.Int64{}
	best.Store(int64(count))

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			for i := w; i < count; i += workers {
				if int64(i) >= best.Load() {
					return nil
				}
				if _, ok := forceCandidate(skeleton, i, target, inv); !ok {
					continue
				}
				// Lower the shared bound, but never raise it.
				for {
					cur := best.Load()
					if int64(i) >= cur || best.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return nil
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	if b := best.Load(); b < int64(count) {
		return int(b)
	}
	return -1
}

// forceCandidate builds candidate i (skeleton + annotation suffix + patch
// zone), solves the patch, and reports whether the patched bytes are all
// legal.
func forceCandidate(skeleton string, i int, target uint32, inv uint64) (string, bool) {
	base := len(forceAlphabet)
	buf := make([]byte, 0, len(skeleton)+suffixLen+patchLen)
	buf = append(buf, skeleton...)
	buf = append(buf, forceAlphabet[i/(base*base)], forceAlphabet[(i/base)%base], forceAlphabet[i%base])
	buf = append(buf, patchSentinel...)

	// The delta between the candidate's CRC and the target, carried back
	// through the reflected bit order, times the inverse of x^32, is what
	// the last four bytes must absorb.
	delta := crc32.ChecksumIEEE(buf) ^ target
	patch := bits.Reverse32(uint32(crc32poly.MulMod(inv, uint64(bits.Reverse32(delta)))))

	off := len(buf) - patchLen
	for j := range patchLen {
		buf[off+j] ^= byte(patch >> (8 * j))
		if !legalForceByte(buf[off+j]) {
			return "", false
		}
	}
	return string(buf), true
}

func legalForceByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z'
}
