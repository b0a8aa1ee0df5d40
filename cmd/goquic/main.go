// Package main 提供 goquic 命令行入口
//
// 最小演示程序：监听模式回显所有入站流，拨号模式发送一条
// 消息并打印回显。两端都通过身份绑定证书完成双向认证。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tlssec "github.com/dep2p/go-quic/internal/core/security/tls"
	"github.com/dep2p/go-quic/internal/core/transport/quic"
	"github.com/dep2p/go-quic/pkg/lib/crypto"
	"github.com/dep2p/go-quic/pkg/lib/log"
	"github.com/dep2p/go-quic/pkg/types"
)

var logger = log.Logger("goquic/cmd")

var (
	listenAddr   = flag.String("listen", "", "监听地址（host:port），启用回显服务")
	dialAddr     = flag.String("dial", "", "拨号地址（host:port）")
	expectedPeer = flag.String("peer", "", "期望的对端 PeerID（base58，拨号时可选）")
	identityFile = flag.String("identity", "", "身份密钥文件路径（不存在则生成）")
	message      = flag.String("msg", "hello from goquic", "拨号模式发送的消息")
	verbose      = flag.Bool("v", false, "输出调试日志")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	privKey, err := loadOrCreateIdentity(*identityFile)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	ident, err := tlssec.NewIdentity(privKey)
	if err != nil {
		return err
	}
	fmt.Println("本端 PeerID:", ident.PeerID())

	transport, err := quic.New(ident)
	if err != nil {
		return err
	}
	defer transport.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *listenAddr != "":
		return runEchoServer(ctx, transport, *listenAddr)
	case *dialAddr != "":
		return runDial(ctx, transport, *dialAddr, *expectedPeer, *message)
	default:
		flag.Usage()
		return fmt.Errorf("需要 -listen 或 -dial")
	}
}

// runEchoServer 接受连接并回显每条入站流
func runEchoServer(ctx context.Context, transport *quic.Transport, addr string) error {
	ln, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	fmt.Println("监听:", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Println("入站连接:", conn.RemotePeer(), conn.RemoteAddr())
		go echoConn(ctx, conn)
	}
}

func echoConn(ctx context.Context, conn *quic.Conn) {
	defer conn.Close()
	for {
		st, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go func() {
			defer st.Close()
			data, err := io.ReadAll(st)
			if err != nil {
				logger.Warn("读取流失败", "error", err)
				return
			}
			if _, err := st.Write(data); err != nil {
				logger.Warn("回写流失败", "error", err)
				return
			}
			st.CloseWrite()
		}()
	}
}

// runDial 拨号、发送消息并打印回显
func runDial(ctx context.Context, transport *quic.Transport, addr, peerStr, msg string) error {
	remote := types.EmptyPeerID
	if peerStr != "" {
		var err error
		remote, err = types.ParsePeerID(peerStr)
		if err != nil {
			return fmt.Errorf("parse peer ID: %w", err)
		}
	}

	conn, err := transport.Dial(ctx, addr, remote)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Println("已认证对端:", conn.RemotePeer())

	st, err := conn.OpenStream(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.Write([]byte(msg)); err != nil {
		return err
	}
	if err := st.CloseWrite(); err != nil {
		return err
	}

	echoed, err := io.ReadAll(st)
	if err != nil {
		return err
	}
	fmt.Println("回显:", string(echoed))
	return nil
}

// loadOrCreateIdentity 从文件加载身份私钥，文件不存在则生成并保存
//
// path 为空时使用一次性内存身份。
func loadOrCreateIdentity(path string) (crypto.PrivateKey, error) {
	if path == "" {
		priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
		return priv, err
	}

	if data, err := os.ReadFile(path); err == nil {
		return crypto.UnmarshalPrivateKeyProto(data)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	if err != nil {
		return nil, err
	}
	data, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	logger.Info("已生成新身份", "path", path)
	return priv, nil
}
