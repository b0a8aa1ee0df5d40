// Package tls 实现身份绑定的 TLS 1.3 安全传输
package tls

import "errors"

// 配置相关错误（签发前拒绝，不触及密码学原语）
var (
	// ErrNilIdentityKey 长期身份私钥为空
	ErrNilIdentityKey = errors.New("tls: nil identity private key")
)

// 证书验证相关错误（对端输入导致，可恢复，中止握手）
var (
	// ErrNoCertificate 对端未提供证书
	ErrNoCertificate = errors.New("tls: no certificate provided")

	// ErrMalformedCertificate 证书无法解析
	ErrMalformedCertificate = errors.New("tls: malformed certificate")

	// ErrNoIdentityExtension 证书缺少身份扩展
	ErrNoIdentityExtension = errors.New("tls: no identity extension in certificate")

	// ErrMalformedExtension 身份扩展编码无效
	ErrMalformedExtension = errors.New("tls: malformed identity extension")

	// ErrUnsupportedKey 身份公钥使用不支持的算法
	ErrUnsupportedKey = errors.New("tls: unsupported identity key type")

	// ErrSignatureMismatch 嵌入签名与长期公钥或证书签名密钥不匹配
	//
	// 这是将临时 TLS 密钥绑定到长期身份的关键检查，
	// 失败意味着握手必须中止，绝不降级为"未认证"。
	ErrSignatureMismatch = errors.New("tls: identity signature mismatch")

	// ErrCertificateExpired 证书不在有效期内
	ErrCertificateExpired = errors.New("tls: certificate not valid at this time")

	// ErrPeerIDMismatch 对端 PeerID 与期望不匹配
	ErrPeerIDMismatch = errors.New("tls: peer ID mismatch")
)
