package dumpcmd

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/apktrust/cmdline/fixturecmd"
	"github.com/sassoftware/apktrust/lib/trust"
	"github.com/sassoftware/apktrust/verifier"
)

func selfSigned(t *testing.T) []byte {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: "Example Release"},
		NotBefore:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

func TestDump(t *testing.T) {
	t.Parallel()
	der := selfSigned(t)
	var pkg bytes.Buffer
	require.NoError(t, fixturecmd.WriteFixture(&pkg, [][]byte{der}))
	path := filepath.Join(t.TempDir(), "signed.apk")
	require.NoError(t, os.WriteFile(path, pkg.Bytes(), 0644))

	table, err := trust.NewTable(trust.SHA256, []trust.Entry{{Fingerprint: trust.SHA256.Fingerprint(der), Code: 5}})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, dumpFile(&out, verifier.New(table, zerolog.Nop()), path))
	text := out.String()
	assert.Contains(t, text, "0x7109871a")
	assert.Contains(t, text, "APK Signature Scheme v2")
	assert.Contains(t, text, "CN=Example Release")
	assert.Contains(t, text, "sha256:")
	assert.Contains(t, text, "fingerprint: "+trust.SHA256.Fingerprint(der))
	assert.Contains(t, text, "trust code:  5")
}

func TestDumpPartial(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "garbage.apk")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{1}, 2048), 0644))
	var out bytes.Buffer
	err := dumpFile(&out, verifier.New(nil, zerolog.Nop()), path)
	require.Error(t, err)
	assert.Equal(t, path+": 2.0 KiB\n", out.String())
}
