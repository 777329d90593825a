package capdec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/captiontools/capdec/internal/keyvalues"
)

// ManifestName is the sound manifest filename referenced by a scripts
// directory.
const ManifestName = "game_sounds_manifest.txt"

// AddList adds candidates from a newline-separated list of soundscript
// names. Blank lines are skipped; no further validation is attempted.
func (ix *Index) AddList(r io.Reader) error {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		ix.add(strings.TrimSpace(scan.Text()))
	}
	if err := scan.Err(); err != nil {
		return fmt.Errorf("capdec: read name list: %w", err)
	}
	return nil
}

// AddScript adds every top-level key of a soundscript file as a candidate.
func (ix *Index) AddScript(r io.Reader) error {
	pairs, err := keyvalues.Parse(r)
	if err != nil {
		return err
	}
	for _, key := range keyvalues.TopKeys(pairs) {
		ix.add(key)
	}
	return nil
}

// AddScriptFile adds candidates from the soundscript file at path.
func (ix *Index) AddScriptFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	before := len(ix.seen)
	if err := ix.AddScript(f); err != nil {
		return fmt.Errorf("capdec: soundscript %s: %w", path, err)
	}
	ix.logger.Debug("read soundscript", "path", path, "names", len(ix.seen)-before)
	return nil
}

// LoadManifest reads game_sounds_manifest.txt from scriptsDir and adds
// candidates from every soundscript it precaches. Referenced paths are
// resolved relative to the parent of scriptsDir, matching how the engine
// resolves them against the game root.
func (ix *Index) LoadManifest(scriptsDir string) error {
	f, err := os.Open(filepath.Join(scriptsDir, ManifestName))
	if err != nil {
		return err
	}
	defer f.Close()

	pairs, err := keyvalues.Parse(f)
	if err != nil {
		return fmt.Errorf("capdec: manifest: %w", err)
	}
	if len(pairs) == 0 {
		return nil
	}

	root := filepath.Dir(scriptsDir)
	for _, entry := range pairs[0].Children {
		if entry.Key != "precache_file" || !entry.HasValue {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(entry.Value))
		if err := ix.AddScriptFile(path); err != nil {
			return err
		}
	}
	return nil
}
