package capdec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
)

// Magic is the 4-byte signature opening every caption archive.
const Magic = "VCCD"

// SupportedVersion is the only documented caption archive version.
const SupportedVersion = 1

const (
	headerSize         = 24
	directoryEntrySize = 12
)

// Open decodes the caption archive at path. Inputs with a .zst suffix are
// transparently decompressed.
func Open(path string, opts ...DecodeOption) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("capdec: open %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return Decode(r, opts...)
}

// Decode reads a caption archive from r.
//
// The stream is consumed strictly forward: the directory is read in file
// order and data blocks are visited monotonically, seeking ahead only when
// an entry's block index passes the current block. Identifiers resolve
// through the configured index; unmatched entries fall back to a 10-digit
// decimal rendering of the checksum, replaced by a forced synthetic name
// when forcing is enabled.
//
// Any truncation or structural fault in the header, directory, or block
// data aborts the decode with no partial result. A forcing exhaustion only
// fails its own entry; the placeholder is kept and counted in the report.
func Decode(r io.Reader, opts ...DecodeOption) (*Archive, error) {
	cfg := newDecodeConfig(opts)
	br := bufio.NewReader(r)

	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	entries, err := readDirectory(br, hdr)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("decoded archive layout",
		"blocks", hdr.BlockCount,
		"blockSize", hdr.BlockSize,
		"entries", len(entries),
		"dataOffset", hdr.DataOffset)

	arc := &Archive{Header: hdr, Report: Report{Total: len(entries)}}
	if err := readBlocks(br, hdr, entries, arc, cfg); err != nil {
		return nil, err
	}
	return arc, nil
}

// readHeader parses and validates the fixed 24-byte header.
func readHeader(r io.Reader) (Header, error) {
	var raw [headerSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	if magic := string(raw[0:4]); magic != Magic {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}

	hdr := Header{
		Version:       binary.LittleEndian.Uint32(raw[4:8]),
		BlockCount:    binary.LittleEndian.Uint32(raw[8:12]),
		BlockSize:     binary.LittleEndian.Uint32(raw[12:16]),
		DirectorySize: binary.LittleEndian.Uint32(raw[16:20]),
		DataOffset:    binary.LittleEndian.Uint32(raw[20:24]),
	}
	if hdr.Version != SupportedVersion {
		return Header{}, fmt.Errorf("%w: version %d, want %d", ErrVersion, hdr.Version, SupportedVersion)
	}
	if hdr.DirectorySize > 0 && hdr.BlockSize == 0 {
		return Header{}, fmt.Errorf("%w: zero block size", ErrFormat)
	}
	directoryEnd := uint64(headerSize) + uint64(hdr.DirectorySize)*directoryEntrySize
	if uint64(hdr.DataOffset) < directoryEnd {
		return Header{}, fmt.Errorf("%w: data offset %d overlaps directory", ErrFormat, hdr.DataOffset)
	}
	return hdr, nil
}

// readDirectory parses the directory table immediately after the header.
func readDirectory(r io.Reader, hdr Header) ([]DirectoryEntry, error) {
	entries := make([]DirectoryEntry, 0, min(hdr.DirectorySize, 1<<16))
	var raw [directoryEntrySize]byte
	for i := uint32(0); i < hdr.DirectorySize; i++ {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, fmt.Errorf("%w: directory entry %d: %v", ErrTruncated, i, err)
		}
		e := DirectoryEntry{
			Checksum:    binary.LittleEndian.Uint32(raw[0:4]),
			BlockIndex:  binary.LittleEndian.Uint32(raw[4:8]),
			BlockOffset: binary.LittleEndian.Uint16(raw[8:10]),
			ByteLength:  binary.LittleEndian.Uint16(raw[10:12]),
		}
		// Caption payloads are UTF-16 code units plus a 2-byte terminator,
		// so the length is always positive and even.
		if e.ByteLength == 0 || e.ByteLength%2 != 0 {
			return nil, fmt.Errorf("%w: directory entry %d: bad length %d", ErrFormat, i, e.ByteLength)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readBlocks walks the data section, decoding each entry's caption and
// resolving its identifier.
func readBlocks(r io.Reader, hdr Header, entries []DirectoryEntry, arc *Archive, cfg decodeConfig) error {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

	// Position accounting starts past the directory; the padding up to
	// DataOffset is discarded, never rewound.
	pos := int64(headerSize) + int64(len(entries))*directoryEntrySize
	if err := discard(r, int64(hdr.DataOffset)-pos); err != nil {
		return fmt.Errorf("%w: data section: %v", ErrTruncated, err)
	}
	pos = int64(hdr.DataOffset)

	curBlock := uint32(0)
	buf := make([]byte, 0, 512)
	for i, e := range entries {
		if e.BlockIndex > curBlock {
			target := int64(hdr.DataOffset) + int64(hdr.BlockSize)*int64(e.BlockIndex)
			if target < pos {
				return fmt.Errorf("%w: entry %d: block %d already passed", ErrFormat, i, e.BlockIndex)
			}
			if err := discard(r, target-pos); err != nil {
				return fmt.Errorf("%w: block %d: %v", ErrTruncated, e.BlockIndex, err)
			}
			pos = target
		}
		curBlock = e.BlockIndex

		if cap(buf) < int(e.ByteLength) {
			buf = make([]byte, e.ByteLength)
		}
		buf = buf[:e.ByteLength]
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrTruncated, i, err)
		}
		pos += int64(e.ByteLength)

		// The final code unit is the null terminator; it is structural,
		// not caption data.
		decoded, err := dec.Bytes(buf[:e.ByteLength-2])
		if err != nil {
			return fmt.Errorf("%w: entry %d: decode caption: %v", ErrFormat, i, err)
		}

		c, err := resolveEntry(e, string(decoded), arc, cfg)
		if err != nil {
			return err
		}
		if arc.Captions.Add(c) {
			cfg.logger.Warn("duplicate identifier, replacing earlier caption", "key", c.Key)
		}
	}

	cfg.logger.Debug("resolved identifiers",
		"matched", arc.Report.Matched,
		"forced", arc.Report.Forced,
		"total", arc.Report.Total)
	return nil
}

// resolveEntry picks the identifier for one directory entry and updates the
// report counters.
func resolveEntry(e DirectoryEntry, text string, arc *Archive, cfg decodeConfig) (Caption, error) {
	c := Caption{Text: text, Checksum: e.Checksum}

	if cfg.index != nil {
		if name, ok := cfg.index.Lookup(e.Checksum); ok {
			c.Key = name
			c.Matched = true
			arc.Report.Matched++
			return c, nil
		}
	}

	c.Key = fmt.Sprintf("%010d", e.Checksum)
	cfg.logger.Info("no candidate name for checksum", "checksum", c.Key)
	if !cfg.force {
		return c, nil
	}

	forced, err := ForceCRC32(c.Key+".", e.Checksum, cfg.forceOpts...)
	if errors.Is(err, ErrExhausted) {
		cfg.logger.Warn("forcing exhausted, keeping placeholder", "checksum", c.Key)
		arc.Report.Exhausted++
		return c, nil
	}
	if err != nil {
		return Caption{}, err
	}
	c.Key = forced
	c.Forced = true
	arc.Report.Forced++
	cfg.logger.Debug("forced identifier", "checksum", e.Checksum, "name", forced)
	return c, nil
}

// discard skips n bytes of the stream.
func discard(r io.Reader, n int64) error {
	if n < 0 {
		return fmt.Errorf("cannot seek backward %d bytes", -n)
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
