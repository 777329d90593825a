// Command capdec decompiles Source engine closed-caption archives into
// closecaption text files, recovering soundscript names from a game's sound
// scripts and optionally forcing checksum-identical replacements for names
// it cannot recover.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/pflag"

	"github.com/captiontools/capdec"
)

// errCanceled aborts the run without an error message after the user
// declines the overwrite prompt.
var errCanceled = errors.New("canceled")

type options struct {
	input        string
	output       string
	soundDir     string
	soundScripts []string
	soundLists   []string
	soundNames   []string
	language     string
	sameHashes   bool
	forceWorkers int
	noSuffix     bool
	padding      int
	noAlign      bool
	spaces       bool
	accept       bool
	verbose      int
}

func main() {
	err := run(os.Args[1:], os.Stdin)
	if errors.Is(err, errCanceled) {
		fmt.Println("Process canceled")
		return
	}
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "capdec:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader) error {
	var opts options
	fs := pflag.NewFlagSet("capdec", pflag.ContinueOnError)
	fs.StringVarP(&opts.input, "input", "i", "", "path to the caption .dat file (required; .zst accepted)")
	fs.StringVarP(&opts.output, "output", "o", "", "output path (default: input name with a _d.txt suffix)")
	fs.StringVar(&opts.soundDir, "sound-dir", "auto", "directory containing soundscripts and "+capdec.ManifestName+" ('auto' probes ../scripts relative to the input)")
	fs.StringArrayVar(&opts.soundScripts, "sound-script", nil, "path to a soundscript file (repeatable)")
	fs.StringArrayVar(&opts.soundLists, "sound-list", nil, "file with newline-separated soundscript names (repeatable)")
	fs.StringArrayVar(&opts.soundNames, "sound-name", nil, "a soundscript name to match against (repeatable)")
	fs.StringVarP(&opts.language, "language", "l", "", "output language (default: guessed from the input filename)")
	fs.BoolVar(&opts.sameHashes, "same-hashes", false, "synthesize names for unmatched captions so the output recompiles to identical hashes")
	fs.IntVar(&opts.forceWorkers, "force-workers", 0, "workers for the forcing search (0 = one per CPU, <0 = serial)")
	fs.BoolVarP(&opts.noSuffix, "no-suffix", "n", false, "drop the _d suffix from the default output name")
	fs.IntVarP(&opts.padding, "padding", "p", 4, "alignment unit; your editor's tab size must match to display correctly")
	fs.BoolVar(&opts.noAlign, "no-align", false, "disable caption alignment")
	fs.BoolVar(&opts.spaces, "spaces", false, "pad with spaces instead of tabs")
	fs.BoolVarP(&opts.accept, "accept", "y", false, "answer yes to all prompts")
	fs.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity (repeatable, up to -vv)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.input == "" {
		return errors.New("--input is required")
	}

	logger := newLogger(opts.verbose)

	if opts.output == "" {
		opts.output = defaultOutput(opts.input, opts.noSuffix)
	}
	if opts.language == "" {
		lang, ok := guessLanguage(baseName(opts.input))
		if !ok {
			logger.Warn("input filename has no language suffix and --language not set; language will be blank")
		}
		opts.language = lang
	}

	if err := confirmOverwrite(opts, stdin); err != nil {
		return err
	}

	idx, err := buildIndex(opts, logger)
	if err != nil {
		return err
	}

	decodeOpts := []capdec.DecodeOption{
		capdec.DecodeWithLogger(logger),
		capdec.DecodeWithForcing(opts.sameHashes),
		capdec.DecodeWithForceWorkers(opts.forceWorkers),
	}
	if idx.Len() > 0 {
		logger.Info("matching caption hashes", "candidates", idx.Len())
		decodeOpts = append(decodeOpts, capdec.DecodeWithIndex(idx))
	} else {
		fmt.Println("No soundscript sources provided. Skipping name hash matching")
	}

	arc, err := capdec.Open(opts.input, decodeOpts...)
	if err != nil {
		return err
	}

	if err := writeOutput(opts, arc); err != nil {
		return err
	}

	fmt.Printf("Hashes found: %d, Expected: %d\n", arc.Report.Matched, arc.Report.Total)
	missing := arc.Report.Total - arc.Report.Matched
	switch {
	case missing == 0:
		fmt.Println("All caption names found")
	case opts.sameHashes:
		fmt.Printf("Synthesized names for %d captions (%d exhausted)\n", arc.Report.Forced, arc.Report.Exhausted)
	default:
		fmt.Printf("WARNING: Did not find names for %d captions (missing soundscripts, or unused)\n", missing)
	}
	fmt.Printf("Finished. Wrote %s\n", opts.output)
	return nil
}

// newLogger maps -v counts to slog levels on stderr.
func newLogger(verbose int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose == 1:
		level = slog.LevelInfo
	case verbose >= 2:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// baseName strips the directory, a .zst suffix, and the final extension.
func baseName(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), ".zst")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// defaultOutput derives the output path next to the input:
// closecaption_english.dat -> closecaption_english_d.txt.
func defaultOutput(input string, noSuffix bool) string {
	name := baseName(input)
	if !noSuffix {
		name += "_d"
	}
	return filepath.Join(filepath.Dir(input), name+".txt")
}

// captionFilePattern is the stock closecaption file naming scheme,
// <prefix>_<language>. Matching is lenient; extra underscore parts are
// allowed and the second field wins.
var captionFilePattern = regexp.MustCompile(`^[a-zA-Z0-9]+_[a-zA-Z0-9]+`)

// guessLanguage extracts the language tag from a caption file basename.
func guessLanguage(base string) (string, bool) {
	if !captionFilePattern.MatchString(base) {
		return "", false
	}
	return strings.Split(base, "_")[1], true
}

// confirmOverwrite prompts before clobbering an existing output file.
func confirmOverwrite(opts options, stdin io.Reader) error {
	if opts.accept {
		return nil
	}
	if _, err := os.Stat(opts.output); err != nil {
		return nil
	}
	fmt.Printf("WARNING: Output will overwrite %s\n", opts.output)
	fmt.Print("Do you want to overwrite the file? [Y/n]: ")
	answer, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(answer), "n") {
		return errCanceled
	}
	return nil
}

// buildIndex collects candidate names from every configured source.
func buildIndex(opts options, logger *slog.Logger) (*capdec.Index, error) {
	idx := capdec.NewIndex(capdec.IndexWithLogger(logger))

	if dir, explicit, ok := resolveSoundDir(opts); ok {
		err := idx.LoadManifest(dir)
		switch {
		case err == nil:
			logger.Info("read sound manifest", "dir", dir)
		case explicit || !errors.Is(err, os.ErrNotExist):
			return nil, err
		default:
			fmt.Printf("Warning: Could not find %s\n", capdec.ManifestName)
		}
	}
	for _, path := range opts.soundScripts {
		if err := idx.AddScriptFile(path); err != nil {
			return nil, err
		}
	}
	for _, path := range opts.soundLists {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		err = idx.AddList(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	idx.AddNames(opts.soundNames...)

	if idx.Collisions() > 0 {
		logger.Warn("candidate names collided on checksum", "collisions", idx.Collisions())
	}
	return idx, nil
}

// resolveSoundDir picks the soundscript directory: an explicit --sound-dir,
// or the conventional scripts directory next to the input's parent.
func resolveSoundDir(opts options) (dir string, explicit, ok bool) {
	switch opts.soundDir {
	case "auto":
		return filepath.Join(filepath.Dir(opts.input), "..", "scripts"), false, true
	case "", "none":
		return "", false, false
	default:
		return opts.soundDir, true, true
	}
}

// writeOutput renders the decoded captions to the output file.
func writeOutput(opts options, arc *capdec.Archive) (err error) {
	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return capdec.Emit(f, &arc.Captions, capdec.EmitOptions{
		Language: opts.language,
		Padding:  opts.padding,
		Spaces:   opts.spaces,
		NoAlign:  opts.noAlign,
	})
}
