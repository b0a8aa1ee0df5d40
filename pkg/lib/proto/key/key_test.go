package key_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quic/pkg/lib/proto/key"
)

func TestPublicKeyRoundTrip(t *testing.T) {
	pub := &key.PublicKey{
		Type: key.KeyType_Ed25519,
		Data: []byte("ed25519-public-key-32-bytes!!!!!"),
	}

	data, err := pub.Marshal()
	require.NoError(t, err)

	var decoded key.PublicKey
	require.NoError(t, decoded.Unmarshal(data))

	assert.Equal(t, pub.Type, decoded.Type)
	assert.Equal(t, pub.Data, decoded.Data)
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	priv := &key.PrivateKey{
		Type: key.KeyType_Secp256k1,
		Data: []byte("secp256k1-private-key"),
	}

	data, err := priv.Marshal()
	require.NoError(t, err)

	var decoded key.PrivateKey
	require.NoError(t, decoded.Unmarshal(data))

	assert.Equal(t, priv.Type, decoded.Type)
	assert.Equal(t, priv.Data, decoded.Data)
}

func TestPublicKeyEmptyData(t *testing.T) {
	pub := &key.PublicKey{Type: key.KeyType_RSA}

	data, err := pub.Marshal()
	require.NoError(t, err)

	var decoded key.PublicKey
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, int32(key.KeyType_RSA), decoded.Type)
	assert.Empty(t, decoded.Data)
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"空输入", nil},
		{"截断的 tag", []byte{0x80}},
		{"缺少 data 字段", []byte{0x08, 0x02}},
		{"缺少 type 字段", []byte{0x12, 0x01, 0xAA}},
		{"长度超出剩余字节", []byte{0x08, 0x02, 0x12, 0x10, 0x00}},
		{"未知字段", []byte{0x08, 0x02, 0x12, 0x00, 0x1a, 0x01, 0x00}},
		{"错误的 wire type", []byte{0x0a, 0x01, 0x02, 0x12, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pub key.PublicKey
			assert.ErrorIs(t, pub.Unmarshal(tt.data), key.ErrInvalidMessage)
		})
	}
}
