package quic

import (
	"errors"
	"fmt"

	"github.com/quic-go/quic-go"
)

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("transport closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("listener closed")

	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("connection closed")

	// ErrStreamClosed 流已被本端关闭
	ErrStreamClosed = errors.New("stream closed")
)

// 应用层错误码（随 CONNECTION_CLOSE 帧传给对端）
const (
	// codeNormalClose 正常关闭
	codeNormalClose = quic.ApplicationErrorCode(0)

	// codeInvariantViolation 流表不变量被破坏，连接级致命
	codeInvariantViolation = quic.ApplicationErrorCode(1)
)

// InvariantError 流表不变量被破坏
//
// 重复添加、删除不存在的流、在不存在的流上注册等待者，
// 都说明调用层的流 ID 命名空间已经错乱。这类错误来自本地
// 受信代码的 bug 而非对端输入，继续运行会进一步污染状态，
// 因此处置方式是终止所在连接，而不是静默恢复。
type InvariantError struct {
	Op       string
	StreamID quic.StreamID
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("quic: stream table invariant violated: %s on stream %d", e.Op, e.StreamID)
}
