// Package quic 实现基于 QUIC 的安全传输层
//
// 两个子系统构成本包的核心：
//
//  1. 身份绑定握手：拨号与监听均通过 security/tls 包签发的
//     自签名证书完成双向认证，握手成功后连接即绑定对端 PeerID。
//
//  2. 每流唤醒状态机：StreamTable 管理连接内所有流的唤醒簿记，
//     在流就绪事件与挂起的读/写/结束操作之间建立桥梁，
//     保证不丢唤醒、不漏唤醒。
//
// 传输层在同一个 UDP socket 上同时监听和拨号。
package quic
