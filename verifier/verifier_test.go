package verifier

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/apktrust/lib/apksig"
	"github.com/sassoftware/apktrust/lib/trust"
	"github.com/sassoftware/apktrust/lib/zipslicer"
)

var deadbeef = []byte{0xde, 0xad, 0xbe, 0xef}

// makeAPK builds a package with an empty central directory whose end record
// occupies the final 22 bytes, preceded by a signing block holding pairs.
func makeAPK(pairs []apksig.IDPair) []byte {
	blob := []byte("PK\x03\x04 pretend file entries")
	blob = append(blob, apksig.MakeSigningBlock(pairs)...)
	end := &zipslicer.EndRecord{CDOffset: uint32(len(blob))}
	return append(blob, end.Bytes()...)
}

func v2Pair(cert []byte) apksig.IDPair {
	return apksig.IDPair{
		ID:    apksig.SigApkV2,
		Value: apksig.MarshalSignersV2([]apksig.SignerV2{{Certificates: [][]byte{cert}}}),
	}
}

func writeFile(t *testing.T, blob []byte) string {
	path := filepath.Join(t.TempDir(), "base.apk")
	require.NoError(t, os.WriteFile(path, blob, 0644))
	return path
}

func TestVerifyUnrecognized(t *testing.T) {
	t.Parallel()
	blob := makeAPK([]apksig.IDPair{v2Pair(deadbeef)})
	v := New(nil, zerolog.Nop())
	res, err := v.Inspect(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(blob)-22), res.EndOffset)
	assert.Equal(t, deadbeef, res.Certificate)
	assert.Equal(t, trust.MD5.Fingerprint(deadbeef), res.Fingerprint)
	assert.Equal(t, trust.Untrusted, res.Code)
	assert.Equal(t, trust.Untrusted, v.VerifyPath(writeFile(t, blob)))
}

func TestVerifyRecognized(t *testing.T) {
	t.Parallel()
	table, err := trust.NewTable(trust.MD5, []trust.Entry{
		{Fingerprint: trust.MD5.Fingerprint(deadbeef), Code: 1, Name: "test"},
		{Fingerprint: trust.MD5.Fingerprint([]byte("other")), Code: 2},
	})
	require.NoError(t, err)
	v := New(table, zerolog.Nop())
	pairs := []apksig.IDPair{
		{ID: 0x42726577, Value: make([]byte, 64)},
		v2Pair(deadbeef),
	}
	path := writeFile(t, makeAPK(pairs))
	assert.Equal(t, trust.Code(1), v.VerifyPath(path))
	assert.Equal(t, trust.Code(1), v.VerifySource(StaticPath(path)))
	assert.Equal(t, trust.Code(1), v.VerifySource(ManifestURLSource("file:"+path+"!/AndroidManifest.xml")))
	assert.Equal(t, trust.Code(2), v.VerifyPath(writeFile(t, makeAPK([]apksig.IDPair{v2Pair([]byte("other"))}))))
}

func TestVerifyFailures(t *testing.T) {
	t.Parallel()
	v := New(nil, zerolog.Nop())
	t.Run("NoEndRecord", func(t *testing.T) {
		path := writeFile(t, bytes.Repeat([]byte{0x55}, 100000))
		assert.Equal(t, trust.Untrusted, v.VerifyPath(path))
	})
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, trust.Untrusted, v.VerifyPath(writeFile(t, nil)))
	})
	t.Run("Missing", func(t *testing.T) {
		assert.Equal(t, trust.Untrusted, v.VerifyPath(filepath.Join(t.TempDir(), "missing.apk")))
	})
	t.Run("Directory", func(t *testing.T) {
		assert.Equal(t, trust.Untrusted, v.VerifyPath(t.TempDir()))
	})
	t.Run("NoV2Block", func(t *testing.T) {
		blob := makeAPK([]apksig.IDPair{{ID: 0xf05368c0, Value: []byte("v3")}})
		_, err := v.Inspect(bytes.NewReader(blob), int64(len(blob)))
		require.ErrorIs(t, err, apksig.ErrNotFound)
		assert.Equal(t, trust.Untrusted, v.VerifyPath(writeFile(t, blob)))
	})
	t.Run("Unsigned", func(t *testing.T) {
		end := &zipslicer.EndRecord{CDOffset: 4}
		blob := append([]byte("PK\x03\x04"), end.Bytes()...)
		_, err := v.Inspect(bytes.NewReader(blob), int64(len(blob)))
		require.ErrorIs(t, err, apksig.ErrNotFound)
	})
	t.Run("OversizedBlock", func(t *testing.T) {
		blob := makeAPK([]apksig.IDPair{v2Pair(deadbeef)})
		// overwrite the size that precedes the magic
		magic := bytes.LastIndex(blob, []byte(apksig.SigMagic))
		copy(blob[magic-8:], []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f})
		_, err := v.Inspect(bytes.NewReader(blob), int64(len(blob)))
		require.ErrorIs(t, err, apksig.ErrInvalidData)
		assert.Equal(t, trust.Untrusted, v.VerifyPath(writeFile(t, blob)))
	})
	t.Run("TruncatedSigner", func(t *testing.T) {
		value := apksig.MarshalSignersV2([]apksig.SignerV2{{Certificates: [][]byte{deadbeef}}})
		blob := makeAPK([]apksig.IDPair{{ID: apksig.SigApkV2, Value: value[:14]}})
		assert.Equal(t, trust.Untrusted, v.VerifyPath(writeFile(t, blob)))
	})
	t.Run("BadSource", func(t *testing.T) {
		assert.Equal(t, trust.Untrusted, v.VerifySource(ManifestURLSource("jar:nonsense")))
		assert.Equal(t, trust.Untrusted, v.VerifySource(StaticPath("")))
	})
}

func TestVerifyLogging(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	v := New(nil, zerolog.New(&buf).Level(zerolog.DebugLevel))
	path := writeFile(t, bytes.Repeat([]byte{0x55}, 100))
	assert.Equal(t, trust.Untrusted, v.VerifyPath(path))
	assert.Contains(t, buf.String(), `"kind":"not_found"`)
	assert.Contains(t, buf.String(), `"path":"`+path+`"`)
}

func TestMetrics(t *testing.T) {
	// not parallel: counters are process-wide
	before := testutil.ToFloat64(MetricResults.WithLabelValues("0"))
	beforeErr := testutil.ToFloat64(MetricErrors.WithLabelValues("not_found"))
	v := New(nil, zerolog.Nop())
	v.VerifyPath(writeFile(t, bytes.Repeat([]byte{0x55}, 100)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(MetricResults.WithLabelValues("0")), before+1)
	assert.GreaterOrEqual(t, testutil.ToFloat64(MetricErrors.WithLabelValues("not_found")), beforeErr+1)
}

func TestMetricsNoPath(t *testing.T) {
	// not parallel: counters are process-wide
	before := testutil.ToFloat64(MetricErrors.WithLabelValues("no_path"))
	beforeUnknown := testutil.ToFloat64(MetricErrors.WithLabelValues("unknown"))
	v := New(nil, zerolog.Nop())
	assert.Equal(t, trust.Untrusted, v.VerifySource(ManifestURLSource("jar:base.apk")))
	assert.Equal(t, trust.Untrusted, v.VerifySource(StaticPath("")))
	assert.Equal(t, before+2, testutil.ToFloat64(MetricErrors.WithLabelValues("no_path")))
	assert.Equal(t, beforeUnknown, testutil.ToFloat64(MetricErrors.WithLabelValues("unknown")))
	assert.Equal(t, "no_path", errorKind(fmt.Errorf("wrapped: %w", ErrNoPath)))
	assert.Equal(t, "truncated", errorKind(apksig.ErrTruncated))
}

func TestManifestURLSource(t *testing.T) {
	t.Parallel()
	path, err := ManifestURLSource("file:/data/app/com.example-1/base.apk!/AndroidManifest.xml").PackagePath()
	require.NoError(t, err)
	assert.Equal(t, "/data/app/com.example-1/base.apk", path)
	_, err = ManifestURLSource("file:!/AndroidManifest.xml").PackagePath()
	require.ErrorIs(t, err, ErrNoPath)
	_, err = ManifestURLSource("/data/app/base.apk").PackagePath()
	require.ErrorIs(t, err, ErrNoPath)
	p, err := PathFunc(func() (string, error) { return "/x.apk", nil }).PackagePath()
	require.NoError(t, err)
	assert.Equal(t, "/x.apk", p)
}
