package tls

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/dep2p/go-quic/pkg/types"
)

// ALPNProtocol 默认的 ALPN 协议标识
const ALPNProtocol = "goquic/1.0.0"

// ConfigBuilder TLS 配置构建器
//
// 为一次连接尝试构建 tls.Config：签发一张新的身份证书，
// 并挂接对端证书验证回调。
type ConfigBuilder struct {
	identity     *Identity
	expectedPeer types.PeerID
	nextProtos   []string
}

// NewConfigBuilder 创建配置构建器
func NewConfigBuilder(identity *Identity) *ConfigBuilder {
	return &ConfigBuilder{
		identity:   identity,
		nextProtos: []string{ALPNProtocol},
	}
}

// WithExpectedPeer 设置期望的对端 PeerID（出站拨号时已知）
//
// 设置后，握手中提取的 PeerID 必须与之匹配，否则握手失败。
func (b *ConfigBuilder) WithExpectedPeer(id types.PeerID) *ConfigBuilder {
	b.expectedPeer = id
	return b
}

// WithNextProtos 设置 ALPN 协议
func (b *ConfigBuilder) WithNextProtos(protos []string) *ConfigBuilder {
	b.nextProtos = protos
	return b
}

// BuildServerConfig 构建服务端 TLS 配置
//
// 要求客户端提供证书（双向认证）。
func (b *ConfigBuilder) BuildServerConfig() (*tls.Config, error) {
	conf, err := b.build()
	if err != nil {
		return nil, err
	}
	conf.ClientAuth = tls.RequireAnyClientCert
	return conf, nil
}

// BuildClientConfig 构建客户端 TLS 配置
func (b *ConfigBuilder) BuildClientConfig() (*tls.Config, error) {
	return b.build()
}

// build 构建两端共用的基础配置
//
// 安全说明：
//   - InsecureSkipVerify 禁用标准 CA 链验证。自签名证书没有 CA，
//     这在 P2P 场景中是正确做法；
//   - 安全性由 VerifyPeerCertificate 回调保证：自签名完整性、
//     有效期、身份扩展的绑定验证；
//   - 强制 TLS 1.3。
func (b *ConfigBuilder) build() (*tls.Config, error) {
	if b.identity == nil {
		return nil, ErrNilIdentityKey
	}

	// 证书按连接尝试签发一次，临时密钥随配置一起丢弃
	cert, err := b.identity.IssueCertificate()
	if err != nil {
		return nil, err
	}

	expected := b.expectedPeer
	return &tls.Config{
		Certificates:       []tls.Certificate{*cert},
		MinVersion:         tls.VersionTLS13,
		NextProtos:         b.nextProtos,
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			_, err := VerifyPeerCertificate(rawCerts, expected)
			return err
		},
	}, nil
}
