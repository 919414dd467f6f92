package trust

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deadbeef = []byte{0xde, 0xad, 0xbe, 0xef}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	md := md5.Sum(deadbeef)
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(md[:])), MD5.Fingerprint(deadbeef))
	sd := sha256.Sum256(deadbeef)
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(sd[:])), SHA256.Fingerprint(deadbeef))
	assert.Len(t, MD5.Fingerprint(nil), MD5.HexLen())
	assert.Len(t, SHA256.Fingerprint(nil), SHA256.HexLen())
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, MD5, alg)
	alg, err = ParseAlgorithm("SHA256")
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)
	_, err = ParseAlgorithm("crc32")
	require.Error(t, err)
}

func TestDefaultTable(t *testing.T) {
	t.Parallel()
	table := Default()
	assert.Equal(t, MD5, table.Algorithm())
	assert.Equal(t, Untrusted, table.Lookup(deadbeef))
	assert.Equal(t, Code(1), table.LookupFingerprint("79F5947F1AC75D23F509DDC97A749DC7"))
	assert.Equal(t, Code(2), table.LookupFingerprint("999014B8010E81DC52825616228ECEB9"))
	assert.Equal(t, "untrusted", table.Name(Untrusted))
	assert.Equal(t, "primary", table.Name(1))
	assert.Len(t, table.Entries(), 2)
}

func TestNewTable(t *testing.T) {
	t.Parallel()
	t.Run("Lookup", func(t *testing.T) {
		fp := strings.ToLower(MD5.Fingerprint(deadbeef))
		table, err := NewTable(MD5, []Entry{{Fingerprint: fp, Code: 1}})
		require.NoError(t, err)
		assert.Equal(t, Code(1), table.Lookup(deadbeef))
		assert.Equal(t, Untrusted, table.Lookup([]byte("other")))
	})
	t.Run("OverlongFingerprint", func(t *testing.T) {
		_, err := NewTable(MD5, []Entry{{Fingerprint: "79F5947F1AC75D23F509DDC97A749DC70", Code: 1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "33 hex digits")
	})
	t.Run("NotHex", func(t *testing.T) {
		_, err := NewTable(MD5, []Entry{{Fingerprint: strings.Repeat("Z", 32), Code: 1}})
		require.Error(t, err)
	})
	t.Run("ZeroCode", func(t *testing.T) {
		_, err := NewTable(MD5, []Entry{{Fingerprint: MD5.Fingerprint(deadbeef)}})
		require.Error(t, err)
	})
	t.Run("Duplicate", func(t *testing.T) {
		fp := MD5.Fingerprint(deadbeef)
		_, err := NewTable(MD5, []Entry{{Fingerprint: fp, Code: 1}, {Fingerprint: fp, Code: 2}})
		require.Error(t, err)
	})
	t.Run("Empty", func(t *testing.T) {
		_, err := NewTable(MD5, nil)
		require.Error(t, err)
	})
	t.Run("SHA256", func(t *testing.T) {
		table, err := NewTable(SHA256, []Entry{{Fingerprint: SHA256.Fingerprint(deadbeef), Code: 7}})
		require.NoError(t, err)
		assert.Equal(t, Code(7), table.Lookup(deadbeef))
		_, err = NewTable(SHA256, []Entry{{Fingerprint: MD5.Fingerprint(deadbeef), Code: 7}})
		require.Error(t, err)
	})
}
