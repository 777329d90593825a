// Package testutil assembles valid caption archive byte images so reader
// tests operate on real VCCD layouts instead of hand-written hex.
package testutil

import (
	"encoding/binary"
	"hash/crc32"
	"unicode/utf16"
)

// DefaultBlockSize matches the block size the engine's caption compiler
// emits.
const DefaultBlockSize = 8192

const (
	headerSize = 24
	entrySize  = 12
)

type caption struct {
	sum  uint32
	text string
}

// ArchiveBuilder accumulates captions and renders them as a complete
// archive: header, directory, 512-byte directory padding, and data blocks
// of UTF-16LE null-terminated payloads.
type ArchiveBuilder struct {
	blockSize uint32
	captions  []caption
}

// NewArchiveBuilder returns a builder with the given block size, or
// DefaultBlockSize when 0.
func NewArchiveBuilder(blockSize uint32) *ArchiveBuilder {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	return &ArchiveBuilder{blockSize: blockSize}
}

// AddNamed adds a caption keyed by the CRC-32 of name, as the compiler
// would.
func (b *ArchiveBuilder) AddNamed(name, text string) *ArchiveBuilder {
	return b.AddChecksum(crc32.ChecksumIEEE([]byte(name)), text)
}

// AddChecksum adds a caption with an explicit checksum.
func (b *ArchiveBuilder) AddChecksum(sum uint32, text string) *ArchiveBuilder {
	b.captions = append(b.captions, caption{sum: sum, text: text})
	return b
}

// Bytes renders the archive image. Captions fill blocks in insertion
// order, starting a new block when the next payload does not fit.
func (b *ArchiveBuilder) Bytes() []byte {
	type dirEntry struct {
		sum    uint32
		block  uint32
		offset uint16
		length uint16
	}

	var (
		dir    []dirEntry
		blocks [][]byte
		cur    []byte
	)
	flush := func() {
		padded := make([]byte, b.blockSize)
		copy(padded, cur)
		blocks = append(blocks, padded)
		cur = nil
	}
	for _, c := range b.captions {
		payload := utf16LETerminated(c.text)
		if len(cur)+len(payload) > int(b.blockSize) && len(cur) > 0 {
			flush()
		}
		dir = append(dir, dirEntry{
			sum:    c.sum,
			block:  uint32(len(blocks)),
			offset: uint16(len(cur)),
			length: uint16(len(payload)),
		})
		cur = append(cur, payload...)
	}
	if len(cur) > 0 || len(blocks) == 0 {
		flush()
	}

	// The compiler pads the directory out to a 512-byte boundary before
	// the data section.
	dirEnd := headerSize + entrySize*len(dir)
	dataOffset := dirEnd + (512 - dirEnd%512)

	out := make([]byte, 0, dataOffset+len(blocks)*int(b.blockSize))
	out = append(out, "VCCD"...)
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(blocks)))
	out = binary.LittleEndian.AppendUint32(out, b.blockSize)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(dir)))
	out = binary.LittleEndian.AppendUint32(out, uint32(dataOffset))
	for _, e := range dir {
		out = binary.LittleEndian.AppendUint32(out, e.sum)
		out = binary.LittleEndian.AppendUint32(out, e.block)
		out = binary.LittleEndian.AppendUint16(out, e.offset)
		out = binary.LittleEndian.AppendUint16(out, e.length)
	}
	out = append(out, make([]byte, dataOffset-dirEnd)...)
	for _, block := range blocks {
		out = append(out, block...)
	}
	return out
}

// utf16LETerminated encodes s as UTF-16LE with a trailing null code unit.
func utf16LETerminated(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2*len(units)+2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return buf
}
