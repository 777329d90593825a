// Package capdec decompiles Source engine closed-caption archives (VCCD
// .dat files) back into editable caption text.
//
// A compiled caption archive stores each caption's text keyed only by the
// CRC-32 of its original soundscript name; the names themselves are gone.
// This package reads the archive directory and caption blocks, resolves
// checksums against candidate names collected from soundscript files, and
// for checksums with no known name can synthesize a replacement identifier
// whose CRC-32 equals the original exactly, so recompiling the decompiled
// text reproduces a byte-identical archive.
//
// # Quick start
//
// Decompile an archive with names from a game's sound scripts:
//
//	idx := capdec.NewIndex()
//	if err := idx.LoadManifest("hl2/scripts"); err != nil {
//	    return err
//	}
//	arc, err := capdec.Open("closecaption_english.dat",
//	    capdec.DecodeWithIndex(idx),
//	    capdec.DecodeWithForcing(true),
//	)
//	if err != nil {
//	    return err
//	}
//	err = capdec.Emit(out, &arc.Captions, capdec.EmitOptions{Language: "english"})
//
// The checksum-forcing algebra lives in internal/crc32poly; [ForceCRC32]
// exposes it for a single identifier.
package capdec
