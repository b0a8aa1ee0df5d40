package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/dep2p/go-quic/pkg/lib/crypto"
	"github.com/dep2p/go-quic/pkg/types"
)

// identityExtensionOID 身份扩展的 OID: 1.3.6.1.4.1.53594.1.1
//
// 扩展标记为 critical：无法理解此扩展的验证器必须拒绝握手。
var identityExtensionOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 53594, 1, 1}

// signingPrefix 签名缓冲区的固定前缀（21 字节）
const signingPrefix = "libp2p-tls-handshake:"

// ephemeralPublicKeySize 临时 P-256 公钥的未压缩点大小（65 字节）
const ephemeralPublicKeySize = 65

// certValidity 证书有效期
const certValidity = 365 * 24 * time.Hour

// signedKey 身份扩展的 DER 负载
//
// 按字段顺序编码为 SEQUENCE of BIT STRING：
// 先是 protobuf 序列化的长期公钥，然后是长期私钥对
// signingPrefix ‖ 临时公钥字节 的签名。
type signedKey struct {
	PubKey    asn1.BitString
	Signature asn1.BitString
}

// Identity 本端身份
//
// 持有应用提供的长期私钥，按连接尝试签发自签名证书。
// 长期密钥由嵌入方应用所有，生命周期跨越任意多个连接。
type Identity struct {
	privKey crypto.PrivateKey
	peerID  types.PeerID
}

// NewIdentity 从长期私钥创建身份
//
// 私钥为空属于配置错误，在触及任何密码学原语之前拒绝。
func NewIdentity(privKey crypto.PrivateKey) (*Identity, error) {
	if privKey == nil {
		return nil, ErrNilIdentityKey
	}

	peerID, err := crypto.PeerIDFromPrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("derive peer ID: %w", err)
	}

	return &Identity{
		privKey: privKey,
		peerID:  peerID,
	}, nil
}

// PeerID 返回本端节点 ID
func (i *Identity) PeerID() types.PeerID {
	return i.peerID
}

// IssueCertificate 签发一张绑定长期身份的自签名证书
//
// 算法：
//  1. 生成一把全新的临时 ECDSA P-256 密钥，仅用于给本证书签名；
//  2. 构造 86 字节签名缓冲区 signingPrefix ‖ 临时公钥（65 字节未压缩点）；
//  3. 用长期私钥对缓冲区签名（与长期密钥算法无关）；
//  4. 将 (protobuf 公钥, 签名) 编码进 critical 身份扩展；
//  5. 用临时密钥自签名证书，subject 为空——身份只存在于扩展中。
//
// 每次连接尝试签发一次；临时私钥由返回的证书独占持有，
// 握手完成后即丢弃，绝不持久化。
//
// 熵耗尽或内存不足属于不可恢复的致命条件，调用方应视为
// 启动失败，而非可上报的验证错误。
func (i *Identity) IssueCertificate() (*tls.Certificate, error) {
	certKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral certificate key: %w", err)
	}

	extValue, err := i.buildIdentityExtension(certKey)
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		// subject 为空：身份只存在于扩展中
		Subject:            pkix.Name{},
		NotBefore:          time.Now().Add(-time.Hour),
		NotAfter:           time.Now().Add(certValidity),
		KeyUsage:           x509.KeyUsageDigitalSignature,
		ExtKeyUsage:        []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		SignatureAlgorithm: x509.ECDSAWithSHA256,
		ExtraExtensions: []pkix.Extension{
			{
				Id:       identityExtensionOID,
				Critical: true,
				Value:    extValue,
			},
		},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &certKey.PublicKey, certKey)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse issued certificate: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  certKey,
		Leaf:        cert,
	}, nil
}

// buildIdentityExtension 构造身份扩展的 DER 负载
func (i *Identity) buildIdentityExtension(certKey *ecdsa.PrivateKey) ([]byte, error) {
	ephemeralPub := elliptic.Marshal(elliptic.P256(), certKey.PublicKey.X, certKey.PublicKey.Y)

	buf := make([]byte, 0, len(signingPrefix)+ephemeralPublicKeySize)
	buf = append(buf, signingPrefix...)
	buf = append(buf, ephemeralPub...)

	signature, err := i.privKey.Sign(buf)
	if err != nil {
		return nil, fmt.Errorf("sign ephemeral key: %w", err)
	}

	keyProto, err := crypto.MarshalPublicKey(i.privKey.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("marshal identity public key: %w", err)
	}

	extValue, err := asn1.Marshal(signedKey{
		PubKey:    asn1.BitString{Bytes: keyProto, BitLength: len(keyProto) * 8},
		Signature: asn1.BitString{Bytes: signature, BitLength: len(signature) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal identity extension: %w", err)
	}

	return extValue, nil
}
