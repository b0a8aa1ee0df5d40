// Package tls 实现身份绑定的 TLS 1.3 安全传输
//
// 每次连接尝试签发一张自签名证书：证书本身由一把临时 ECDSA P-256
// 密钥签名，而节点的长期身份公钥连同一个签名一起嵌入在一个关键
// (critical) 自定义扩展中。签名内容为固定前缀加上临时公钥字节，
// 由长期私钥生成。对端据此在 TLS 握手期间完成双向身份认证，
// 无需任何外部 CA。
//
// 扩展格式（OID 1.3.6.1.4.1.53594.1.1）：
//
//	SEQUENCE {
//	    BIT STRING  -- protobuf 序列化的长期公钥
//	    BIT STRING  -- Sign(长期私钥, "libp2p-tls-handshake:" ‖ 临时公钥)
//	}
//
// 所有来自网络输入的验证失败都是可恢复错误：拒绝对端、关闭连接，
// 绝不中止进程。
package tls
