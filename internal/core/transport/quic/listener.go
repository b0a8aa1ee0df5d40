package quic

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/quic-go/quic-go"

	tlssec "github.com/dep2p/go-quic/internal/core/security/tls"
	"github.com/dep2p/go-quic/pkg/types"
)

// Listener QUIC 监听器
//
// Accept 返回的连接都已通过握手完成双向身份认证。
type Listener struct {
	quicListener *quic.Listener
	localPeer    types.PeerID
	closed       atomic.Bool
}

func newListener(ql *quic.Listener, localPeer types.PeerID) *Listener {
	return &Listener{
		quicListener: ql,
		localPeer:    localPeer,
	}
}

// Accept 接受一条入站连接
//
// 阻塞直到有新连接、ctx 取消或监听器关闭。
// 握手层已经完成证书绑定验证；这里从握手结果提取对端身份，
// 提取失败的连接被丢弃，继续接受下一条。
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	for {
		if l.closed.Load() {
			return nil, ErrListenerClosed
		}

		quicConn, err := l.quicListener.Accept(ctx)
		if err != nil {
			if l.closed.Load() {
				return nil, ErrListenerClosed
			}
			return nil, fmt.Errorf("accept connection: %w", err)
		}

		remotePeer, err := tlssec.PeerIDFromConnectionState(quicConn.ConnectionState().TLS)
		if err != nil {
			logger.Warn("入站连接身份提取失败，丢弃",
				"remoteAddr", quicConn.RemoteAddr(),
				"error", err)
			_ = quicConn.CloseWithError(codeNormalClose, "identity extraction failed")
			continue
		}

		return newConn(quicConn, l.localPeer, remotePeer, DirInbound), nil
	}
}

// Addr 返回监听地址
func (l *Listener) Addr() net.Addr {
	return l.quicListener.Addr()
}

// Close 关闭监听器
func (l *Listener) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.quicListener.Close()
}

// IsClosed 检查监听器是否已关闭
func (l *Listener) IsClosed() bool {
	return l.closed.Load()
}
