// Package lib 包含基础设施工具库
//
// 本目录包含与传输组件无关的通用工具库：
//
//   - crypto: 密码学原语（密钥、签名、PeerID 派生）
//   - log: 日志封装
//   - proto: Protobuf 网络消息定义
//
// pkg/types 提供公共类型定义，internal/ 下是传输与安全层实现。
package lib
