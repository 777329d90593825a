package capdec

import (
	"bytes"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddNames(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.AddNames("weapons/pistol_fire", "npc/metrocop/question01")

	assert.Equal(t, 2, idx.Len())

	name, ok := idx.Lookup(crc32.ChecksumIEEE([]byte("weapons/pistol_fire")))
	require.True(t, ok)
	assert.Equal(t, "weapons/pistol_fire", name)

	_, ok = idx.Lookup(0)
	assert.False(t, ok)
}

func TestIndex_DeduplicatesNames(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.AddNames("weapons/pistol_fire", "weapons/pistol_fire", "")

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 0, idx.Collisions())
}

func TestIndex_CollisionKeepsFirst(t *testing.T) {
	t.Parallel()

	// Manufacture a genuine CRC-32 collision with the forcer.
	first := "npc/metrocop/question01"
	sum := crc32.ChecksumIEEE([]byte(first))
	second, err := ForceCRC32("collider.", sum, ForceWithWorkers(-1))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	var logBuf bytes.Buffer
	idx := NewIndex(IndexWithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))))
	idx.AddNames(first, second)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, idx.Collisions())
	name, ok := idx.Lookup(sum)
	require.True(t, ok)
	assert.Equal(t, first, name)
	assert.Contains(t, logBuf.String(), "collision")
}

func TestIndex_AddList(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	err := idx.AddList(strings.NewReader("weapons/pistol_fire\n\n  npc/metrocop/question01  \n"))
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	_, ok := idx.Lookup(crc32.ChecksumIEEE([]byte("npc/metrocop/question01")))
	assert.True(t, ok)
}

func TestIndex_AddScript(t *testing.T) {
	t.Parallel()

	const script = `// pistol
"weapons/pistol_fire"
{
	"channel" "CHAN_WEAPON"
}
"weapons/pistol_reload"
{
	"channel" "CHAN_ITEM"
}`

	idx := NewIndex()
	require.NoError(t, idx.AddScript(strings.NewReader(script)))

	assert.Equal(t, 2, idx.Len())
	name, ok := idx.Lookup(crc32.ChecksumIEEE([]byte("weapons/pistol_reload")))
	require.True(t, ok)
	assert.Equal(t, "weapons/pistol_reload", name)
}

func TestIndex_AddScript_Malformed(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	err := idx.AddScript(strings.NewReader(`"unclosed" {`))
	require.Error(t, err)
}

func TestIndex_LoadManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	scripts := filepath.Join(root, "scripts")
	require.NoError(t, os.Mkdir(scripts, 0o755))

	writeFile(t, filepath.Join(scripts, ManifestName), `game_sounds_manifest
{
	precache_file	"scripts/game_sounds_weapons.txt"
	precache_file	"scripts/npc_sounds_metrocop.txt"
}`)
	writeFile(t, filepath.Join(scripts, "game_sounds_weapons.txt"), `"weapons/pistol_fire" { "channel" "CHAN_WEAPON" }`)
	writeFile(t, filepath.Join(scripts, "npc_sounds_metrocop.txt"), `"npc/metrocop/question01" { "channel" "CHAN_VOICE" }`)

	idx := NewIndex()
	require.NoError(t, idx.LoadManifest(scripts))

	assert.Equal(t, 2, idx.Len())
	_, ok := idx.Lookup(crc32.ChecksumIEEE([]byte("weapons/pistol_fire")))
	assert.True(t, ok)
	_, ok = idx.Lookup(crc32.ChecksumIEEE([]byte("npc/metrocop/question01")))
	assert.True(t, ok)
}

func TestIndex_LoadManifest_MissingScript(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	scripts := filepath.Join(root, "scripts")
	require.NoError(t, os.Mkdir(scripts, 0o755))
	writeFile(t, filepath.Join(scripts, ManifestName), `game_sounds_manifest
{
	precache_file	"scripts/not_there.txt"
}`)

	idx := NewIndex()
	err := idx.LoadManifest(scripts)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
