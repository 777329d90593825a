package capdec

import "errors"

// Sentinel errors for archive decoding.
var (
	// ErrBadMagic is returned when the archive does not start with the
	// VCCD signature.
	ErrBadMagic = errors.New("capdec: not a caption archive (bad magic)")

	// ErrVersion is returned when the archive declares an unsupported
	// format version.
	ErrVersion = errors.New("capdec: unsupported caption file version")

	// ErrTruncated is returned when the stream ends before the header,
	// directory, or a caption block it declares.
	ErrTruncated = errors.New("capdec: truncated archive")

	// ErrFormat is returned when the header or a directory entry is
	// structurally invalid.
	ErrFormat = errors.New("capdec: malformed archive")
)

// Sentinel errors for identifier forcing.
var (
	// ErrExhausted is returned when the bounded suffix search space is
	// used up without producing a legal identifier. Fatal for the entry,
	// not for the archive.
	ErrExhausted = errors.New("capdec: forcing search space exhausted")

	// ErrVerification is returned when a forced identifier's recomputed
	// checksum disagrees with the target. This indicates an internal
	// defect, never a retryable condition.
	ErrVerification = errors.New("capdec: forced checksum verification failed")
)
