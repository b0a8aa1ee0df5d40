package quic

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-quic/pkg/lib/log"
	"github.com/dep2p/go-quic/pkg/types"
)

var logger = log.Logger("transport/quic")

// Direction 连接方向
type Direction int

const (
	// DirOutbound 出站连接（本端拨号）
	DirOutbound Direction = iota
	// DirInbound 入站连接（本端接受）
	DirInbound
)

func (d Direction) String() string {
	if d == DirOutbound {
		return "outbound"
	}
	return "inbound"
}

// Conn 已认证的 QUIC 连接
//
// 握手完成即绑定对端 PeerID，生命周期内不变。
// 连接独占持有其流表：流打开/接受时登记，句柄关闭时注销，
// 连接拆除时整表唤醒，保证没有任务挂在已消失的流上。
type Conn struct {
	quicConn   quic.Connection
	localPeer  types.PeerID
	remotePeer types.PeerID
	direction  Direction

	streams *StreamTable
	opened  time.Time
	closed  atomic.Bool
}

func newConn(quicConn quic.Connection, local, remote types.PeerID, dir Direction) *Conn {
	c := &Conn{
		quicConn:   quicConn,
		localPeer:  local,
		remotePeer: remote,
		direction:  dir,
		streams:    NewStreamTable(),
		opened:     time.Now(),
	}

	// 连接死亡（无论哪端发起）时整表唤醒
	go func() {
		<-quicConn.Context().Done()
		c.streams.Close()
	}()

	return c
}

// LocalPeer 返回本端节点 ID
func (c *Conn) LocalPeer() types.PeerID {
	return c.localPeer
}

// RemotePeer 返回已认证的对端节点 ID
func (c *Conn) RemotePeer() types.PeerID {
	return c.remotePeer
}

// Direction 返回连接方向
func (c *Conn) Direction() Direction {
	return c.direction
}

// LocalAddr 返回本端地址
func (c *Conn) LocalAddr() net.Addr {
	return c.quicConn.LocalAddr()
}

// RemoteAddr 返回对端地址
func (c *Conn) RemoteAddr() net.Addr {
	return c.quicConn.RemoteAddr()
}

// Context 返回连接生命周期上下文，连接关闭时取消
func (c *Conn) Context() context.Context {
	return c.quicConn.Context()
}

// NumStreams 返回当前活跃流数量
func (c *Conn) NumStreams() int {
	return c.streams.Len()
}

// OpenStream 打开出站流
func (c *Conn) OpenStream(ctx context.Context) (s *Stream, err error) {
	defer c.trapInvariant(&err)

	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	qs, err := c.quicConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.streams.AddStream(qs.StreamID()); err != nil {
		qs.CancelRead(0)
		qs.CancelWrite(0)
		return nil, err
	}
	return newStream(qs, c), nil
}

// AcceptStream 接受对端打开的流
func (c *Conn) AcceptStream(ctx context.Context) (s *Stream, err error) {
	defer c.trapInvariant(&err)

	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	qs, err := c.quicConn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.streams.AddStream(qs.StreamID()); err != nil {
		qs.CancelRead(0)
		qs.CancelWrite(0)
		return nil, err
	}
	return newStream(qs, c), nil
}

// Close 关闭连接
//
// 先整表唤醒所有挂起的流操作，再关闭底层 QUIC 连接。
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.streams.Close()
	return c.quicConn.CloseWithError(codeNormalClose, "connection closed")
}

// IsClosed 检查连接是否已关闭
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// trapInvariant 捕获流表不变量违例并终止连接
//
// 不变量违例说明本地调用层有 bug，继续运行会进一步污染状态：
// 处置为连接级致命——关闭本连接，但绝不崩溃整个进程。
func (c *Conn) trapInvariant(err *error) {
	r := recover()
	if r == nil {
		return
	}
	ive, ok := r.(*InvariantError)
	if !ok {
		panic(r)
	}

	logger.Error("流表不变量被破坏，终止连接",
		"op", ive.Op,
		"streamID", ive.StreamID,
		"remotePeer", c.remotePeer.ShortString())

	if !c.closed.Swap(true) {
		c.streams.Close()
		_ = c.quicConn.CloseWithError(codeInvariantViolation, "stream table invariant violation")
	}
	*err = ive
}
