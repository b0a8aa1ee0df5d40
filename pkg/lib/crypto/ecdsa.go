package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"fmt"
	"io"
	"math/big"
)

// ECDSA 密钥常量（使用 P-256 曲线）
const (
	// ECDSAPrivateKeySize ECDSA 私钥大小（32 字节）
	ECDSAPrivateKeySize = 32
	// ECDSAPublicKeySize ECDSA 压缩公钥大小（33 字节）
	ECDSAPublicKeySize = 33
	// ECDSAUncompressedPublicKeySize ECDSA 未压缩公钥大小（65 字节）
	ECDSAUncompressedPublicKeySize = 65
	// ECDSASignatureSize ECDSA 签名大小（64 字节，R‖S）
	ECDSASignatureSize = 64
)

// ============================================================================
//                              ECDSAPublicKey
// ============================================================================

// ECDSAPublicKey ECDSA 公钥实现（P-256 曲线）
type ECDSAPublicKey struct {
	k *ecdsa.PublicKey
}

// Raw 返回压缩格式的公钥字节（33 字节）
func (k *ECDSAPublicKey) Raw() ([]byte, error) {
	return elliptic.MarshalCompressed(elliptic.P256(), k.k.X, k.k.Y), nil
}

// Type 返回密钥类型
func (k *ECDSAPublicKey) Type() KeyType {
	return KeyTypeECDSA
}

// Equals 比较两个公钥是否相等
func (k *ECDSAPublicKey) Equals(other Key) bool {
	ek, ok := other.(*ECDSAPublicKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.X.Cmp(ek.k.X) == 0 && k.k.Y.Cmp(ek.k.Y) == 0
}

// Verify 使用此公钥验证签名
//
// 签名格式为 64 字节：R (32 字节) ‖ S (32 字节)
func (k *ECDSAPublicKey) Verify(data, sig []byte) (bool, error) {
	if len(sig) != ECDSASignatureSize {
		return false, nil
	}

	hash := sha256.Sum256(data)
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])

	return ecdsa.Verify(k.k, hash[:], r, s), nil
}

// ============================================================================
//                              ECDSAPrivateKey
// ============================================================================

// ECDSAPrivateKey ECDSA 私钥实现（P-256 曲线）
type ECDSAPrivateKey struct {
	k *ecdsa.PrivateKey
}

// Raw 返回原始私钥字节（32 字节）
func (k *ECDSAPrivateKey) Raw() ([]byte, error) {
	return paddedBytes(k.k.D, ECDSAPrivateKeySize), nil
}

// Type 返回密钥类型
func (k *ECDSAPrivateKey) Type() KeyType {
	return KeyTypeECDSA
}

// Equals 比较两个私钥是否相等
func (k *ECDSAPrivateKey) Equals(other Key) bool {
	ek, ok := other.(*ECDSAPrivateKey)
	if !ok {
		return KeyEqual(k, other)
	}

	b1 := paddedBytes(k.k.D, ECDSAPrivateKeySize)
	b2 := paddedBytes(ek.k.D, ECDSAPrivateKeySize)
	return subtle.ConstantTimeCompare(b1, b2) == 1
}

// GetPublic 返回对应的公钥
func (k *ECDSAPrivateKey) GetPublic() PublicKey {
	return &ECDSAPublicKey{k: &k.k.PublicKey}
}

// Sign 使用此私钥签名数据
//
// 返回 64 字节签名：R (32 字节) ‖ S (32 字节)
func (k *ECDSAPrivateKey) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, k.k, hash[:])
	if err != nil {
		return nil, err
	}

	sig := make([]byte, ECDSASignatureSize)
	copy(sig[:32], paddedBytes(r, 32))
	copy(sig[32:], paddedBytes(s, 32))
	return sig, nil
}

// ============================================================================
//                              工厂函数
// ============================================================================

// GenerateECDSAKey 生成新的 ECDSA 密钥对（P-256 曲线）
func GenerateECDSAKey(src io.Reader) (PrivateKey, PublicKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), src)
	if err != nil {
		return nil, nil, err
	}
	return &ECDSAPrivateKey{k: priv}, &ECDSAPublicKey{k: &priv.PublicKey}, nil
}

// UnmarshalECDSAPublicKey 从字节反序列化 ECDSA 公钥
//
// 支持压缩格式（33 字节）和未压缩格式（65 字节）
func UnmarshalECDSAPublicKey(data []byte) (PublicKey, error) {
	curve := elliptic.P256()

	switch len(data) {
	case ECDSAPublicKeySize:
		x, y := elliptic.UnmarshalCompressed(curve, data)
		if x == nil {
			return nil, ErrInvalidPublicKey
		}
		return &ECDSAPublicKey{k: &ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil

	case ECDSAUncompressedPublicKeySize:
		x, y := elliptic.Unmarshal(curve, data)
		if x == nil {
			return nil, ErrInvalidPublicKey
		}
		return &ECDSAPublicKey{k: &ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil

	default:
		return nil, fmt.Errorf("%w: expected %d or %d bytes, got %d",
			ErrInvalidKeySize, ECDSAPublicKeySize, ECDSAUncompressedPublicKeySize, len(data))
	}
}

// UnmarshalECDSAPrivateKey 从字节反序列化 ECDSA 私钥
//
// 支持原始格式（32 字节）和 PKCS#8/SEC1 格式
func UnmarshalECDSAPrivateKey(data []byte) (PrivateKey, error) {
	// 尝试 PKCS#8 格式
	if key, err := x509.ParsePKCS8PrivateKey(data); err == nil {
		if ecdsaKey, ok := key.(*ecdsa.PrivateKey); ok {
			return &ECDSAPrivateKey{k: ecdsaKey}, nil
		}
	}

	// 尝试 SEC1 格式
	if key, err := x509.ParseECPrivateKey(data); err == nil {
		return &ECDSAPrivateKey{k: key}, nil
	}

	// 尝试原始格式（32 字节）
	if len(data) == ECDSAPrivateKeySize {
		x, y := elliptic.P256().ScalarBaseMult(data)
		priv := &ecdsa.PrivateKey{
			D: new(big.Int).SetBytes(data),
			PublicKey: ecdsa.PublicKey{
				Curve: elliptic.P256(),
				X:     x,
				Y:     y,
			},
		}
		return &ECDSAPrivateKey{k: priv}, nil
	}

	return nil, ErrInvalidPrivateKey
}

// paddedBytes 返回固定长度的大端字节切片
func paddedBytes(n *big.Int, length int) []byte {
	b := n.Bytes()
	if len(b) >= length {
		return b[len(b)-length:]
	}
	padded := make([]byte, length)
	copy(padded[length-len(b):], b)
	return padded
}
