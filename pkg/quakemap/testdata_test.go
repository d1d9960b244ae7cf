package quakemap

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// boxBrush is a 64 unit cube at the origin as a level editor writes it.
const boxBrush = `{
( 0 0 0 ) ( 0 1 0 ) ( 0 0 1 ) base/wall 0 0 0 1 1
( 0 0 0 ) ( 0 0 1 ) ( 1 0 0 ) base/wall 0 0 0 1 1
( 0 0 0 ) ( 1 0 0 ) ( 0 1 0 ) base/floor 0 0 0 1 1
( 64 64 64 ) ( 64 65 64 ) ( 65 64 64 ) base/ceil 0 0 0 1 1
( 64 64 64 ) ( 65 64 64 ) ( 64 64 65 ) base/wall 0 0 0 1 1
( 64 64 64 ) ( 64 64 65 ) ( 64 65 64 ) base/wall 0 0 0 1 1
}
`

// wedgeBrush is a 64 unit box cut by the plane x+z=64. The slanted face
// carries the optional content flags, surface flags and value.
const wedgeBrush = `{
( 0 0 0 ) ( 0 1 0 ) ( 0 0 1 ) base/wall 0 0 0 1 1
( 0 0 0 ) ( 0 0 1 ) ( 1 0 0 ) base/wall 0 0 0 1 1
( 0 0 0 ) ( 1 0 0 ) ( 0 1 0 ) base/floor 0 0 0 1 1
( 0 64 0 ) ( 1 64 0 ) ( 0 64 1 ) base/wall 0 0 0 1 1
( 64 0 0 ) ( 0 0 64 ) ( 64 64 0 ) base/slope 16 -8 45 0.5 2 0 0 0
}
`

var sampleMap = `// Game: Quake
{
"classname" "worldspawn"
"wad" "gfx/base.wad" // textures
` + boxBrush + wedgeBrush + `}
{
"classname" "info_player_start"
"origin" "32 32 24"
"angle" "90"
}
`

func mustParse(t *testing.T, src string) *Result {
	t.Helper()
	res, err := NewParser().Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return res
}
