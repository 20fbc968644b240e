package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("sha1:7110eda4d09e062aa5e4a390b0a572ac0d2c0220")
	require.NoError(t, err)
	assert.Equal(t, "sha1", id.Algorithm())
	assert.Equal(t, "7110eda4d09e062aa5e4a390b0a572ac0d2c0220", id.Hex())
	assert.Equal(t, "sha1:7110eda4d09e062aa5e4a390b0a572ac0d2c0220", id.String())
	assert.False(t, id.IsZero())
}

func TestParseIDInvalid(t *testing.T) {
	cases := []string{
		"",
		"sha1",                  // no separator
		"sha1:",                 // empty digest
		"sha1:xyz",              // not hex
		"sha1:ABCDEF",           // uppercase is not canonical
		":7110eda4d09e062aa5e4", // empty algorithm
		"sha1:abc",              // odd length
	}
	for _, c := range cases {
		_, err := ParseID(c)
		assert.ErrorIs(t, err, ErrInvalidID, "input %q", c)
	}
}

func TestSumRoundTrip(t *testing.T) {
	id, err := Sum("sha1", []byte("1234"))
	require.NoError(t, err)
	assert.Equal(t, "sha1:7110eda4d09e062aa5e4a390b0a572ac0d2c0220", id.String())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = Sum("md5", []byte("1234"))
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestIDFromName(t *testing.T) {
	id, ok := IDFromName("7110eda4d09e062aa5e4a390b0a572ac0d2c0220")
	require.True(t, ok)
	assert.Equal(t, "sha1", id.Algorithm())

	sha256Name := strings.Repeat("ab", 32)
	id, ok = IDFromName(sha256Name)
	require.True(t, ok)
	assert.Equal(t, "sha256", id.Algorithm())
	assert.Equal(t, sha256Name, id.Hex())

	for _, name := range []string{"", "abc", "abcd", "7110eda4d09e062aa5e4a390b0a572ac0d2c0220.ATTEMPT", strings.Repeat("zz", 20)} {
		_, ok := IDFromName(name)
		assert.False(t, ok, "name %q", name)
	}
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("00ff"))
	assert.True(t, IsHex("7110eda4d09e062aa5e4a390b0a572ac0d2c0220"))
	assert.False(t, IsHex(""))
	assert.False(t, IsHex("0"))
	assert.False(t, IsHex("0G"))
	assert.False(t, IsHex("AB"))
	assert.False(t, IsHex("readme.txt"))
}

func TestIDAsMapKey(t *testing.T) {
	a, _ := Sum("sha256", []byte("a"))
	b, _ := Sum("sha256", []byte("b"))
	m := map[ID]int{a: 1, b: 2}
	assert.Equal(t, 1, m[a])
	assert.Equal(t, 2, m[b])
}
