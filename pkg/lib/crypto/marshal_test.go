package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalPublicKeyRoundTrip(t *testing.T) {
	for _, kt := range KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			_, pub, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			data, err := MarshalPublicKey(pub)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalPublicKeyProto(data)
			require.NoError(t, err)
			assert.Equal(t, kt, decoded.Type())
			assert.True(t, pub.Equals(decoded))
		})
	}
}

func TestMarshalPrivateKeyRoundTrip(t *testing.T) {
	for _, kt := range KeyTypes {
		t.Run(kt.String(), func(t *testing.T) {
			priv, _, err := GenerateKeyPair(kt)
			require.NoError(t, err)

			data, err := MarshalPrivateKey(priv)
			require.NoError(t, err)

			decoded, err := UnmarshalPrivateKeyProto(data)
			require.NoError(t, err)
			assert.True(t, priv.Equals(decoded))
		})
	}
}

func TestMarshalNilKeys(t *testing.T) {
	_, err := MarshalPublicKey(nil)
	assert.ErrorIs(t, err, ErrNilPublicKey)

	_, err = MarshalPrivateKey(nil)
	assert.ErrorIs(t, err, ErrNilPrivateKey)
}

func TestUnmarshalPublicKeyProtoMalformed(t *testing.T) {
	_, err := UnmarshalPublicKeyProto([]byte{0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrUnmarshalFailed)
}

func TestUnmarshalPublicKeyProtoUnknownKeyType(t *testing.T) {
	_, pub, err := GenerateKeyPair(KeyTypeEd25519)
	require.NoError(t, err)

	data, err := MarshalPublicKey(pub)
	require.NoError(t, err)

	// 将类型字段篡改为不支持的值（field 1 varint 紧跟 tag 0x08）
	require.Equal(t, byte(0x08), data[0])
	data[1] = 63

	_, err = UnmarshalPublicKeyProto(data)
	assert.ErrorIs(t, err, ErrBadKeyType)
}
