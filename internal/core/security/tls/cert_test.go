package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quic/pkg/lib/crypto"
)

func TestNewIdentityNilKey(t *testing.T) {
	_, err := NewIdentity(nil)
	assert.ErrorIs(t, err, ErrNilIdentityKey)
}

func TestIssueCertificateStructure(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)

	ident, err := NewIdentity(priv)
	require.NoError(t, err)

	cert, err := ident.IssueCertificate()
	require.NoError(t, err)
	require.NotNil(t, cert.Leaf)
	require.Len(t, cert.Certificate, 1)

	// subject 为空——身份只存在于扩展中
	assert.Empty(t, cert.Leaf.Subject.Organization)
	assert.Empty(t, cert.Leaf.Subject.CommonName)

	// 证书签名密钥必须是 P-256
	certPub, ok := cert.Leaf.PublicKey.(*ecdsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, elliptic.P256(), certPub.Curve)

	// 身份扩展存在且为 critical
	found := false
	for _, ext := range cert.Leaf.Extensions {
		if ext.Id.Equal(identityExtensionOID) {
			found = true
			assert.True(t, ext.Critical, "身份扩展必须为 critical")
			break
		}
	}
	assert.True(t, found, "证书必须包含身份扩展")
}

func TestIssueExtractRoundTrip(t *testing.T) {
	for _, kt := range crypto.KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := crypto.GenerateKeyPair(kt)
			require.NoError(t, err)

			ident, err := NewIdentity(priv)
			require.NoError(t, err)

			cert, err := ident.IssueCertificate()
			require.NoError(t, err)

			peerID, err := ExtractPeerID(cert.Certificate[0])
			require.NoError(t, err)

			expected, err := crypto.PeerIDFromPublicKey(pub)
			require.NoError(t, err)
			assert.True(t, peerID.Equal(expected))
			assert.True(t, peerID.Equal(ident.PeerID()))
		})
	}
}

func TestIdentityDistinctness(t *testing.T) {
	privA, pubA, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	_, pubB, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)

	identA, err := NewIdentity(privA)
	require.NoError(t, err)

	cert, err := identA.IssueCertificate()
	require.NoError(t, err)

	peerID, err := ExtractPeerID(cert.Certificate[0])
	require.NoError(t, err)

	idA, err := crypto.PeerIDFromPublicKey(pubA)
	require.NoError(t, err)
	idB, err := crypto.PeerIDFromPublicKey(pubB)
	require.NoError(t, err)

	assert.True(t, peerID.Equal(idA))
	assert.False(t, peerID.Equal(idB))
}

func TestEphemeralKeyFreshPerIssue(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)

	ident, err := NewIdentity(priv)
	require.NoError(t, err)

	cert1, err := ident.IssueCertificate()
	require.NoError(t, err)
	cert2, err := ident.IssueCertificate()
	require.NoError(t, err)

	pub1 := cert1.Leaf.PublicKey.(*ecdsa.PublicKey)
	pub2 := cert2.Leaf.PublicKey.(*ecdsa.PublicKey)
	assert.NotEqual(t, 0, pub1.X.Cmp(pub2.X), "每次签发必须使用全新的临时密钥")
}

func BenchmarkIssueCertificate(b *testing.B) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(b, err)
	ident, err := NewIdentity(priv)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ident.IssueCertificate(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtractPeerID(b *testing.B) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(b, err)
	ident, err := NewIdentity(priv)
	require.NoError(b, err)
	cert, err := ident.IssueCertificate()
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ExtractPeerID(cert.Certificate[0]); err != nil {
			b.Fatal(err)
		}
	}
}
