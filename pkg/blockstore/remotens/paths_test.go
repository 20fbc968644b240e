package remotens

import (
	"testing"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoot(t *testing.T) {
	assert.Equal(t, "/", normalizeRoot(""))
	assert.Equal(t, "/", normalizeRoot("/"))
	assert.Equal(t, "/blocks/", normalizeRoot("/blocks"))
	assert.Equal(t, "/blocks/", normalizeRoot("blocks/"))
	assert.Equal(t, "/blocks/", normalizeRoot("blocks"))
	assert.Equal(t, "/a/b/", normalizeRoot("/a/b"))
}

func TestPathFor(t *testing.T) {
	id, err := block.ParseID("sha1:7110eda4d09e062aa5e4a390b0a572ac0d2c0220")
	require.NoError(t, err)
	assert.Equal(t, "/blocks/7110eda4d09e062aa5e4a390b0a572ac0d2c0220", pathFor("/blocks/", id))
	assert.Equal(t, "/7110eda4d09e062aa5e4a390b0a572ac0d2c0220", pathFor("/", id))
}

func TestPathIDRoundTrip(t *testing.T) {
	roots := []string{"/", "/blocks/", "/deep/nested/root/"}
	payloads := [][]byte{[]byte("1234"), []byte(""), []byte("x")}
	algos := []string{"sha1", "sha256", "sha512"}

	for _, root := range roots {
		for _, algo := range algos {
			for _, payload := range payloads {
				id, err := block.Sum(algo, payload)
				require.NoError(t, err)

				back, ok := idForPath(root, pathFor(root, id))
				require.True(t, ok, "root %q algo %q", root, algo)
				assert.Equal(t, id, back)
			}
		}
	}
}

func TestIDForPathRejects(t *testing.T) {
	cases := []string{
		"/elsewhere/7110eda4d09e062aa5e4a390b0a572ac0d2c0220", // outside root
		"/blocks/7110eda4d09e062aa5e4a390b0a572ac0d2c0220.ATTEMPT",
		"/blocks/readme.txt",
		"/blocks/ABCDEF", // uppercase
		"/blocks/",
	}
	for _, p := range cases {
		_, ok := idForPath("/blocks/", p)
		assert.False(t, ok, "path %q", p)
	}
}
