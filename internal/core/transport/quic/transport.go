package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	tlssec "github.com/dep2p/go-quic/internal/core/security/tls"
	"github.com/dep2p/go-quic/pkg/types"
)

// Transport QUIC 传输
//
// 使用共享的 UDP socket 进行监听和拨号：quic.Transport 支持
// 在同一个 socket 上同时监听和拨号，出站连接复用监听端口。
//
// 每次连接尝试（无论拨号还是应答）都签发一张全新的自签名
// 身份证书，临时密钥随握手结束丢弃。
type Transport struct {
	mu sync.Mutex

	identity  *tlssec.Identity
	localPeer types.PeerID
	config    *quic.Config

	quicTransport *quic.Transport
	udpConn       *net.UDPConn

	listeners []*Listener
	closed    bool
}

// New 创建 QUIC 传输
func New(identity *tlssec.Identity) (*Transport, error) {
	if identity == nil {
		return nil, tlssec.ErrNilIdentityKey
	}

	return &Transport{
		identity:  identity,
		localPeer: identity.PeerID(),
		config: &quic.Config{
			MaxIdleTimeout:        30 * time.Second,
			KeepAlivePeriod:       10 * time.Second,
			MaxIncomingStreams:    1024,
			MaxIncomingUniStreams: 1024,
		},
	}, nil
}

// LocalPeer 返回本端节点 ID
func (t *Transport) LocalPeer() types.PeerID {
	return t.localPeer
}

// Dial 拨号连接到 raddr（"host:port"）
//
// remote 非空时，握手中提取的对端身份必须与之匹配，否则握手失败；
// 为空时接受任何通过绑定验证的身份。
func (t *Transport) Dial(ctx context.Context, raddr string, remote types.PeerID) (*Conn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", raddr)
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	// 没有先 Listen 时惰性创建共享 socket（随机端口）
	if err := t.ensureTransportLocked(&net.UDPAddr{Port: 0}); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	quicTransport := t.quicTransport
	t.mu.Unlock()

	// 证书按连接尝试签发
	clientTLS, err := tlssec.NewConfigBuilder(t.identity).
		WithExpectedPeer(remote).
		BuildClientConfig()
	if err != nil {
		return nil, fmt.Errorf("build client TLS config: %w", err)
	}

	quicConn, err := quicTransport.Dial(ctx, udpAddr, clientTLS, t.config)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", raddr, err)
	}

	remotePeer, err := tlssec.PeerIDFromConnectionState(quicConn.ConnectionState().TLS)
	if err != nil {
		_ = quicConn.CloseWithError(codeNormalClose, "identity extraction failed")
		return nil, err
	}

	logger.Debug("出站连接建立",
		"remoteAddr", raddr,
		"remotePeer", remotePeer.ShortString())

	return newConn(quicConn, t.localPeer, remotePeer, DirOutbound), nil
}

// Listen 在 laddr（"host:port"）上监听
//
// 首次调用创建共享 UDP socket，后续 Dial 复用同一端口。
// 服务端证书通过 GetConfigForClient 按每次握手签发。
func (t *Transport) Listen(laddr string) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if err := t.ensureTransportLocked(udpAddr); err != nil {
		return nil, err
	}

	builder := tlssec.NewConfigBuilder(t.identity)
	serverTLS := &tls.Config{
		MinVersion: tls.VersionTLS13,
		NextProtos: []string{tlssec.ALPNProtocol},
		GetConfigForClient: func(*tls.ClientHelloInfo) (*tls.Config, error) {
			// 每次握手一张新证书
			return builder.BuildServerConfig()
		},
	}

	quicListener, err := t.quicTransport.Listen(serverTLS, t.config)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	listener := newListener(quicListener, t.localPeer)
	t.listeners = append(t.listeners, listener)

	logger.Info("监听已启动",
		"addr", quicListener.Addr(),
		"localPeer", t.localPeer.ShortString())

	return listener, nil
}

// Close 关闭传输：所有监听器、共享 QUIC 传输与 UDP socket
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for _, l := range t.listeners {
		_ = l.Close()
	}
	t.listeners = nil

	if t.quicTransport != nil {
		_ = t.quicTransport.Close()
		t.quicTransport = nil
	}
	if t.udpConn != nil {
		_ = t.udpConn.Close()
		t.udpConn = nil
	}
	return nil
}

// ensureTransportLocked 惰性创建共享 UDP socket 与 quic.Transport
func (t *Transport) ensureTransportLocked(addr *net.UDPAddr) error {
	if t.quicTransport != nil {
		return nil
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen udp: %w", err)
	}
	t.udpConn = conn
	t.quicTransport = &quic.Transport{Conn: conn}
	return nil
}
