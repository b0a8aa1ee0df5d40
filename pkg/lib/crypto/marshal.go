package crypto

import (
	"fmt"

	keypb "github.com/dep2p/go-quic/pkg/lib/proto/key"
)

// ============================================================================
//                              序列化格式
// ============================================================================

// 公钥/私钥统一使用 pkg/lib/proto/key 的 protobuf wire format：
//
//	message PublicKey {
//	    KeyType type = 1;
//	    bytes   data = 2;
//	}
//
// 这是证书扩展中携带的公钥编码，也是 PeerID 派生的输入。

// MarshalPublicKey 序列化公钥（protobuf wire format）
func MarshalPublicKey(key PublicKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilPublicKey
	}

	raw, err := key.Raw()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshalFailed, err)
	}

	msg := &keypb.PublicKey{
		Type: int32(key.Type()),
		Data: raw,
	}

	data, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshalFailed, err)
	}
	return data, nil
}

// UnmarshalPublicKeyProto 从 protobuf 字节反序列化公钥
//
// 不支持的密钥类型返回 ErrBadKeyType，格式错误返回 ErrUnmarshalFailed。
func UnmarshalPublicKeyProto(data []byte) (PublicKey, error) {
	var msg keypb.PublicKey
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, err)
	}

	return UnmarshalPublicKey(KeyType(msg.Type), msg.Data)
}

// MarshalPrivateKey 序列化私钥（protobuf wire format）
func MarshalPrivateKey(key PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilPrivateKey
	}

	raw, err := key.Raw()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshalFailed, err)
	}

	msg := &keypb.PrivateKey{
		Type: int32(key.Type()),
		Data: raw,
	}

	data, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarshalFailed, err)
	}
	return data, nil
}

// UnmarshalPrivateKeyProto 从 protobuf 字节反序列化私钥
func UnmarshalPrivateKeyProto(data []byte) (PrivateKey, error) {
	var msg keypb.PrivateKey
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, err)
	}

	return UnmarshalPrivateKey(KeyType(msg.Type), msg.Data)
}
