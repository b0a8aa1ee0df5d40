package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairAllTypes(t *testing.T) {
	for _, kt := range KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)
			require.NotNil(t, priv)
			require.NotNil(t, pub)

			assert.Equal(t, kt, priv.Type())
			assert.Equal(t, kt, pub.Type())
			assert.True(t, pub.Equals(priv.GetPublic()))
		})
	}
}

func TestGenerateKeyPairUnknownType(t *testing.T) {
	_, _, err := GenerateKeyPair(KeyType(99))
	assert.ErrorIs(t, err, ErrBadKeyType)
}

func TestSignVerifyAllTypes(t *testing.T) {
	msg := []byte("message to be signed by the identity key")

	for _, kt := range KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			sig, err := priv.Sign(msg)
			require.NoError(t, err)
			require.NotEmpty(t, sig)

			ok, err := pub.Verify(msg, sig)
			require.NoError(t, err)
			assert.True(t, ok)

			// 篡改消息后验证必须失败
			tampered := append([]byte{}, msg...)
			tampered[0] ^= 0x01
			ok, _ = pub.Verify(tampered, sig)
			assert.False(t, ok)

			// 其他密钥的签名验证必须失败
			otherPriv, _, err := GenerateKeyPair(kt)
			require.NoError(t, err)
			otherSig, err := otherPriv.Sign(msg)
			require.NoError(t, err)
			ok, _ = pub.Verify(msg, otherSig)
			assert.False(t, ok)
		})
	}
}

func TestRawRoundTripAllTypes(t *testing.T) {
	for _, kt := range KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			pubRaw, err := pub.Raw()
			require.NoError(t, err)
			pub2, err := UnmarshalPublicKey(kt, pubRaw)
			require.NoError(t, err)
			assert.True(t, pub.Equals(pub2))

			privRaw, err := priv.Raw()
			require.NoError(t, err)
			priv2, err := UnmarshalPrivateKey(kt, privRaw)
			require.NoError(t, err)
			assert.True(t, priv.Equals(priv2))
		})
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalPublicKey(KeyType(42), []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadKeyType)

	_, err = UnmarshalPrivateKey(KeyType(42), []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadKeyType)
}

func TestKeyEqualAcrossTypes(t *testing.T) {
	_, edPub, err := GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	_, ecPub, err := GenerateECDSAKey(rand.Reader)
	require.NoError(t, err)

	assert.False(t, KeyEqual(edPub, ecPub))
	assert.True(t, KeyEqual(edPub, edPub))
}

func TestEd25519UnmarshalSeed(t *testing.T) {
	priv, _, err := GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	seed := priv.(*Ed25519PrivateKey).k.Seed()
	fromSeed, err := UnmarshalEd25519PrivateKey(seed)
	require.NoError(t, err)

	assert.True(t, priv.Equals(fromSeed))
}

func TestEd25519UnmarshalWrongSize(t *testing.T) {
	_, err := UnmarshalEd25519PublicKey(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = UnmarshalEd25519PrivateKey(make([]byte, 48))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestECDSAUncompressedPublicKey(t *testing.T) {
	priv, pub, err := GenerateECDSAKey(rand.Reader)
	require.NoError(t, err)
	_ = priv

	// 压缩格式（Raw 的默认输出）与未压缩格式都可反序列化
	raw, err := pub.Raw()
	require.NoError(t, err)
	require.Len(t, raw, ECDSAPublicKeySize)

	fromCompressed, err := UnmarshalECDSAPublicKey(raw)
	require.NoError(t, err)
	assert.True(t, pub.Equals(fromCompressed))
}

func TestRSAKeySizeLimits(t *testing.T) {
	_, _, err := GenerateRSAKey(1024, rand.Reader)
	assert.Error(t, err)

	_, _, err = GenerateRSAKey(RSAMaxKeySize*2, rand.Reader)
	assert.Error(t, err)
}
