package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/captiontools/capdec/internal/testutil"
)

func TestGuessLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base string
		want string
		ok   bool
	}{
		{"closecaption_english", "english", true},
		{"closecaption_french", "french", true},
		{"subtitles_russian_extra", "russian", true},
		{"closecaption", "", false},
		{"_english", "", false},
	}
	for _, tt := range tests {
		lang, ok := guessLanguage(tt.base)
		assert.Equal(t, tt.ok, ok, "base %q", tt.base)
		assert.Equal(t, tt.want, lang, "base %q", tt.base)
	}
}

func TestDefaultOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		noSuffix bool
		want     string
	}{
		{"captions/closecaption_english.dat", false, filepath.Join("captions", "closecaption_english_d.txt")},
		{"captions/closecaption_english.dat", true, filepath.Join("captions", "closecaption_english.txt")},
		{"closecaption_english.dat.zst", false, "closecaption_english_d.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultOutput(tt.input, tt.noSuffix))
	}
}

func TestResolveSoundDir(t *testing.T) {
	t.Parallel()

	dir, explicit, ok := resolveSoundDir(options{input: "game/captions/cc_english.dat", soundDir: "auto"})
	assert.True(t, ok)
	assert.False(t, explicit)
	assert.Equal(t, filepath.Join("game", "captions", "..", "scripts"), dir)

	dir, explicit, ok = resolveSoundDir(options{soundDir: "custom/scripts"})
	assert.True(t, ok)
	assert.True(t, explicit)
	assert.Equal(t, "custom/scripts", dir)

	_, _, ok = resolveSoundDir(options{soundDir: "none"})
	assert.False(t, ok)
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "closecaption_english.dat")

	img := testutil.NewArchiveBuilder(0).
		AddNamed("weapons/pistol_fire", "[Pistol fire]").
		AddNamed("npc/metrocop/question01", "Anything?").
		Bytes()
	require.NoError(t, os.WriteFile(input, img, 0o644))

	err := run([]string{
		"--input", input,
		"--sound-dir", "none",
		"--sound-name", "weapons/pistol_fire",
		"--sound-name", "npc/metrocop/question01",
		"--accept",
	}, strings.NewReader(""))
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "closecaption_english_d.txt"))
	require.NoError(t, err)

	dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	decoded, err := dec.Bytes(out)
	require.NoError(t, err)

	text := string(decoded)
	assert.Contains(t, text, `"Language" "english"`)
	assert.Contains(t, text, `"weapons/pistol_fire"`)
	assert.Contains(t, text, `"[Pistol fire]"`)
	assert.Contains(t, text, `"npc/metrocop/question01"`)
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	err := run(nil, strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input is required")
}

func TestRun_DeclinedOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "closecaption_english.dat")
	img := testutil.NewArchiveBuilder(0).AddChecksum(1, "hi").Bytes()
	require.NoError(t, os.WriteFile(input, img, 0o644))

	output := filepath.Join(dir, "closecaption_english_d.txt")
	require.NoError(t, os.WriteFile(output, []byte("precious"), 0o644))

	err := run([]string{"--input", input, "--sound-dir", "none"}, strings.NewReader("n\n"))
	require.ErrorIs(t, err, errCanceled)

	kept, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(kept))
}
