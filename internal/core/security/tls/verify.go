package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/tls"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-quic/pkg/lib/crypto"
	"github.com/dep2p/go-quic/pkg/types"
)

// ExtractPeerID 从证书字节中提取认证过的 PeerID
//
// 验证步骤：
//  1. 定位身份扩展（缺失是可恢复错误，不假设上游布线顺序）；
//  2. 严格解码 DER SEQUENCE：恰好两个 BIT STRING，无未用位，无尾随字节；
//  3. 反序列化 protobuf 长期公钥，拒绝不支持的算法；
//  4. 验证嵌入签名覆盖 signingPrefix ‖ 证书自身的 P-256 公钥字节——
//     这是让临时 TLS 密钥代言长期身份的绑定步骤，失配即中止握手；
//  5. 从长期公钥派生 PeerID。
//
// 任何失败都是分类过的可恢复错误，由连接边界处理：
// 拒绝对端、关闭连接，绝不崩溃进程，绝不部分信任。
func ExtractPeerID(rawCert []byte) (types.PeerID, error) {
	cert, err := x509.ParseCertificate(rawCert)
	if err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	return extractPeerIDFromCert(cert)
}

// extractPeerIDFromCert 对已解析的证书执行提取与绑定验证
func extractPeerIDFromCert(cert *x509.Certificate) (types.PeerID, error) {
	var extValue []byte
	found := false
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(identityExtensionOID) {
			extValue = ext.Value
			found = true
			break
		}
	}
	if !found {
		return types.EmptyPeerID, ErrNoIdentityExtension
	}

	var sk signedKey
	rest, err := asn1.Unmarshal(extValue, &sk)
	if err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrMalformedExtension, err)
	}
	if len(rest) > 0 {
		return types.EmptyPeerID, fmt.Errorf("%w: trailing bytes", ErrMalformedExtension)
	}
	// BIT STRING 必须无未用位
	if sk.PubKey.BitLength%8 != 0 || sk.Signature.BitLength%8 != 0 {
		return types.EmptyPeerID, fmt.Errorf("%w: non-canonical bit string", ErrMalformedExtension)
	}

	pubKey, err := crypto.UnmarshalPublicKeyProto(sk.PubKey.Bytes)
	if err != nil {
		if errors.Is(err, crypto.ErrBadKeyType) {
			return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
		}
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrMalformedExtension, err)
	}

	// 证书自身的签名密钥必须是临时 ECDSA P-256 密钥
	certPub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok || certPub.Curve != elliptic.P256() {
		return types.EmptyPeerID, fmt.Errorf("%w: certificate key is not ECDSA P-256", ErrMalformedExtension)
	}
	ephemeralPub := elliptic.Marshal(elliptic.P256(), certPub.X, certPub.Y)

	buf := make([]byte, 0, len(signingPrefix)+ephemeralPublicKeySize)
	buf = append(buf, signingPrefix...)
	buf = append(buf, ephemeralPub...)

	valid, err := pubKey.Verify(buf, sk.Signature.Bytes)
	if err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
	if !valid {
		return types.EmptyPeerID, ErrSignatureMismatch
	}

	return crypto.PeerIDFromPublicKey(pubKey)
}

// VerifyPeerCertificate 验证对端证书链并提取 PeerID
//
// 作为 tls.Config.VerifyPeerCertificate 的实现主体：标准 CA 验证
// 被禁用（自签名证书没有 CA），安全性完全来自：
//  1. 证书自签名的结构完整性（证书确实由其声称的密钥签名）；
//  2. 有效期检查；
//  3. 身份扩展的绑定验证（ExtractPeerID）。
//
// expectedPeer 非空时，提取出的 PeerID 必须与之匹配（出站拨号）；
// 为空时接受任何通过绑定验证的身份（入站接受）。
func VerifyPeerCertificate(rawCerts [][]byte, expectedPeer types.PeerID) (types.PeerID, error) {
	if len(rawCerts) == 0 {
		return types.EmptyPeerID, ErrNoCertificate
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}

	// 自签名完整性：证书必须由其自身携带的公钥签名
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return types.EmptyPeerID, fmt.Errorf("%w: self-signature check failed: %v", ErrMalformedCertificate, err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return types.EmptyPeerID, ErrCertificateExpired
	}

	peerID, err := extractPeerIDFromCert(cert)
	if err != nil {
		return types.EmptyPeerID, err
	}

	if !expectedPeer.IsEmpty() && !peerID.Equal(expectedPeer) {
		return types.EmptyPeerID, fmt.Errorf("%w: expected %s, got %s",
			ErrPeerIDMismatch, expectedPeer.ShortString(), peerID.ShortString())
	}

	return peerID, nil
}

// PeerIDFromConnectionState 从 TLS 连接状态中提取已认证的 PeerID
func PeerIDFromConnectionState(state tls.ConnectionState) (types.PeerID, error) {
	if len(state.PeerCertificates) == 0 {
		return types.EmptyPeerID, ErrNoCertificate
	}
	return extractPeerIDFromCert(state.PeerCertificates[0])
}
