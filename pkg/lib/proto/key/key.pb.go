// Package key 包含身份密钥的 protobuf 定义
//
// 证书扩展与对端交换的公钥统一使用此 wire format 编码：
//
//	message PublicKey {
//	    KeyType type = 1;
//	    bytes   data = 2;
//	}
//
//	message PrivateKey {
//	    KeyType type = 1;
//	    bytes   data = 2;
//	}
//
// KeyType 枚举值与 pkg/lib/crypto.KeyType 对齐。
package key

import (
	"errors"

	"github.com/multiformats/go-varint"
)

// ErrInvalidMessage 表示无效的密钥消息数据
var ErrInvalidMessage = errors.New("invalid key message data")

// KeyType 枚举值（与 crypto.KeyType 对齐）
const (
	KeyType_Unspecified = 0
	KeyType_RSA         = 1
	KeyType_Ed25519     = 2
	KeyType_Secp256k1   = 3
	KeyType_ECDSA       = 4
)

// PublicKey 序列化公钥消息
type PublicKey struct {
	// 密钥类型
	Type int32
	// 原始公钥字节
	Data []byte
}

// PrivateKey 序列化私钥消息
type PrivateKey struct {
	// 密钥类型
	Type int32
	// 原始私钥字节
	Data []byte
}

// Marshal 序列化 PublicKey
//
// 使用 protobuf wire format 编码：
//   - Field 1 (type): tag=0x08, wire type=0 (varint)
//   - Field 2 (data): tag=0x12, wire type=2 (length-delimited)
func (p *PublicKey) Marshal() ([]byte, error) {
	return marshalKeyMessage(p.Type, p.Data)
}

// Unmarshal 反序列化 PublicKey
func (p *PublicKey) Unmarshal(data []byte) error {
	return unmarshalKeyMessage(data, &p.Type, &p.Data)
}

// Marshal 序列化 PrivateKey
func (p *PrivateKey) Marshal() ([]byte, error) {
	return marshalKeyMessage(p.Type, p.Data)
}

// Unmarshal 反序列化 PrivateKey
func (p *PrivateKey) Unmarshal(data []byte) error {
	return unmarshalKeyMessage(data, &p.Type, &p.Data)
}

// marshalKeyMessage 编码 {type, data} 两字段消息
func marshalKeyMessage(keyType int32, keyData []byte) ([]byte, error) {
	if keyType < 0 {
		return nil, ErrInvalidMessage
	}

	result := make([]byte, 0, len(keyData)+12)

	// Field 1: type (tag = 0x08 = field 1, wire type 0)
	// 与 proto3 不同，type 总是显式写出，接收方无需猜测缺省值
	result = append(result, 0x08)
	result = append(result, varint.ToUvarint(uint64(keyType))...)

	// Field 2: data (tag = 0x12 = field 2, wire type 2)
	result = append(result, 0x12)
	result = append(result, varint.ToUvarint(uint64(len(keyData)))...)
	result = append(result, keyData...)

	return result, nil
}

// unmarshalKeyMessage 解码 {type, data} 两字段消息
func unmarshalKeyMessage(data []byte, keyType *int32, keyData *[]byte) error {
	sawType := false
	sawData := false

	for len(data) > 0 {
		tag, n, err := varint.FromUvarint(data)
		if err != nil {
			return ErrInvalidMessage
		}
		data = data[n:]

		fieldNum := tag >> 3
		wireType := tag & 0x07

		switch {
		case fieldNum == 1 && wireType == 0:
			v, n, err := varint.FromUvarint(data)
			if err != nil || v > 1<<31-1 {
				return ErrInvalidMessage
			}
			*keyType = int32(v)
			sawType = true
			data = data[n:]

		case fieldNum == 2 && wireType == 2:
			length, n, err := varint.FromUvarint(data)
			if err != nil {
				return ErrInvalidMessage
			}
			data = data[n:]
			if uint64(len(data)) < length {
				return ErrInvalidMessage
			}
			*keyData = make([]byte, length)
			copy(*keyData, data[:length])
			sawData = true
			data = data[length:]

		default:
			// 证书扩展中的密钥消息不允许未知字段
			return ErrInvalidMessage
		}
	}

	if !sawType || !sawData {
		return ErrInvalidMessage
	}
	return nil
}
