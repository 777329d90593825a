package keyvalues

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Manifest(t *testing.T) {
	t.Parallel()

	const input = `game_sounds_manifest
{
	precache_file	"scripts/game_sounds.txt"
	precache_file	"scripts/game_sounds_weapons.txt"
}`

	pairs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	root := pairs[0]
	assert.Equal(t, "game_sounds_manifest", root.Key)
	assert.False(t, root.HasValue)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "precache_file", root.Children[0].Key)
	assert.Equal(t, "scripts/game_sounds.txt", root.Children[0].Value)
	assert.Equal(t, "scripts/game_sounds_weapons.txt", root.Children[1].Value)
}

func TestParse_Soundscript(t *testing.T) {
	t.Parallel()

	const input = `// weapon sounds
"weapons/pistol_fire"
{
	"channel"	"CHAN_WEAPON"
	"volume"	"1.0" // full volume
	"wave"		"weapons/pistol/fire.wav"
}
"npc/metrocop/question01"
{
	"channel"	"CHAN_VOICE"
}`

	pairs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"weapons/pistol_fire", "npc/metrocop/question01"}, TopKeys(pairs))

	require.Len(t, pairs[0].Children, 3)
	assert.Equal(t, "1.0", pairs[0].Children[1].Value)
	assert.True(t, pairs[0].Children[1].HasValue)
}

func TestParse_MixedQuoting(t *testing.T) {
	t.Parallel()

	pairs, err := Parse(strings.NewReader(`key value
"quoted key" bare`))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "key", pairs[0].Key)
	assert.Equal(t, "value", pairs[0].Value)
	assert.Equal(t, "quoted key", pairs[1].Key)
	assert.Equal(t, "bare", pairs[1].Value)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	pairs, err := Parse(strings.NewReader("\n// nothing here\n"))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "unterminated block",
			input: "key {\n\t\"a\" \"b\"\n",
			want:  "unexpected end of input",
		},
		{
			name:  "stray close",
			input: "}",
			want:  "unexpected '}'",
		},
		{
			name:  "block without key",
			input: "{ \"a\" \"b\" }",
			want:  "unexpected '{'",
		},
		{
			name:  "key without value",
			input: `"orphan"`,
			want:  "has no value",
		},
		{
			name:  "unterminated quote",
			input: `"never closed`,
			want:  "unterminated quoted token",
		},
		{
			name:  "single slash",
			input: "key / value",
			want:  "after '/'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ErrorLineNumber(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("a b\nc d\n\"oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
