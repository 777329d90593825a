package capdec

import "iter"

// Header is the fixed 24-byte VCCD archive header.
type Header struct {
	Version       uint32
	BlockCount    uint32
	BlockSize     uint32
	DirectorySize uint32
	DataOffset    uint32
}

// DirectoryEntry locates one caption's text within the data section.
// Entries appear in file order, which within a block need not be offset
// order; block indices themselves only ever advance.
type DirectoryEntry struct {
	Checksum    uint32
	BlockIndex  uint32
	BlockOffset uint16
	ByteLength  uint16
}

// Caption is one decoded caption with its resolved identifier.
type Caption struct {
	// Key is the resolved identifier: a matched candidate name, a
	// 10-digit decimal rendering of the checksum, or a forced synthetic
	// name.
	Key string

	// Text is the caption text with the null terminator stripped.
	Text string

	// Checksum is the identifier hash from the directory entry.
	Checksum uint32

	// Matched reports whether Key came from the candidate index.
	Matched bool

	// Forced reports whether Key was synthesized to hash to Checksum.
	Forced bool
}

// CaptionList is an insertion-ordered collection of captions keyed by
// identifier. Insertion order equals directory order and is preserved by
// the emitter.
type CaptionList struct {
	captions []Caption
	byKey    map[string]int
}

// Add appends a caption, or replaces the text of an existing key in place.
// It reports whether an existing key was replaced.
func (cl *CaptionList) Add(c Caption) (replaced bool) {
	if cl.byKey == nil {
		cl.byKey = make(map[string]int)
	}
	if i, ok := cl.byKey[c.Key]; ok {
		cl.captions[i] = c
		return true
	}
	cl.byKey[c.Key] = len(cl.captions)
	cl.captions = append(cl.captions, c)
	return false
}

// Len returns the number of captions.
func (cl *CaptionList) Len() int {
	return len(cl.captions)
}

// Lookup returns the caption for the given identifier.
func (cl *CaptionList) Lookup(key string) (Caption, bool) {
	i, ok := cl.byKey[key]
	if !ok {
		return Caption{}, false
	}
	return cl.captions[i], true
}

// All iterates captions in insertion order.
func (cl *CaptionList) All() iter.Seq[Caption] {
	return func(yield func(Caption) bool) {
		for _, c := range cl.captions {
			if !yield(c) {
				return
			}
		}
	}
}

// Report summarizes identifier resolution for one archive.
type Report struct {
	// Total is the number of directory entries decoded.
	Total int

	// Matched counts entries resolved through the candidate index.
	Matched int

	// Forced counts entries whose identifier was synthesized.
	Forced int

	// Exhausted counts entries where forcing ran out of candidates and
	// the decimal placeholder was kept.
	Exhausted int
}

// Archive is the decoded result of one caption file.
type Archive struct {
	Header   Header
	Captions CaptionList
	Report   Report
}
