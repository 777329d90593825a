package capdec

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EmitOptions configures caption text output.
type EmitOptions struct {
	// Language fills the "Language" field of the output preamble.
	Language string

	// Padding is the alignment unit: the display width of a tab, or the
	// number of spaces per unit when Spaces is set. Values <= 0 disable
	// alignment.
	Padding int

	// Spaces pads with literal spaces instead of tabs.
	Spaces bool

	// NoAlign disables column alignment; a single padding unit separates
	// key and caption.
	NoAlign bool
}

// Emit renders captions as a closecaption source file: a "lang" block with
// a Language tag and a Tokens table of quoted key/caption pairs, one per
// caption in insertion order, encoded as UTF-16 with a byte order mark.
//
// With alignment enabled, captions start at a consistent column derived
// from the longest key. Keys are quoted in the width math, and the target
// column is bumped past exact unit multiples so no pad ever collapses to
// zero.
func Emit(w io.Writer, captions *CaptionList, opts EmitOptions) error {
	align := !opts.NoAlign && opts.Padding > 0

	unit := "\t"
	if opts.Spaces && opts.Padding > 0 {
		unit = strings.Repeat(" ", opts.Padding)
	}

	maxWidth := 0
	for c := range captions.All() {
		if width := len(c.Key) + 2; width > maxWidth {
			maxWidth = width
		}
	}
	if align && maxWidth%opts.Padding == 0 {
		maxWidth++
	}

	var sb strings.Builder
	sb.WriteString("\"lang\"\n{\n")
	sb.WriteString(unit + "\"Language\" \"" + opts.Language + "\"\n")
	sb.WriteString(unit + "\"Tokens\"\n" + unit + "{\n")
	for c := range captions.All() {
		sb.WriteString(unit + unit + "\"" + c.Key + "\"")
		sb.WriteString(pad(len(c.Key)+2, maxWidth, opts, align, unit))
		sb.WriteString("\"" + c.Text + "\"\n")
	}
	sb.WriteString(unit + "}\n}")

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	tw := transform.NewWriter(w, enc)
	if _, err := io.WriteString(tw, sb.String()); err != nil {
		return fmt.Errorf("capdec: emit: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("capdec: emit: %w", err)
	}
	return nil
}

// pad returns the separator between a quoted key of the given width and its
// caption.
func pad(keyWidth, maxWidth int, opts EmitOptions, align bool, unit string) string {
	if !align {
		return unit
	}
	if opts.Spaces {
		// Exact space count to the first unit boundary past maxWidth.
		n := maxWidth + (opts.Padding - maxWidth%opts.Padding) - keyWidth
		return strings.Repeat(" ", n)
	}
	// Tabs advance to unit boundaries, so count boundary crossings.
	n := (maxWidth+opts.Padding-1)/opts.Padding - keyWidth/opts.Padding
	return strings.Repeat("\t", n)
}
