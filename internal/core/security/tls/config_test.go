package tls

import (
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-quic/pkg/lib/crypto"
)

func TestBuildNilIdentity(t *testing.T) {
	_, err := NewConfigBuilder(nil).BuildClientConfig()
	assert.ErrorIs(t, err, ErrNilIdentityKey)

	_, err = NewConfigBuilder(nil).BuildServerConfig()
	assert.ErrorIs(t, err, ErrNilIdentityKey)
}

func TestBuildConfigShape(t *testing.T) {
	ident := newTestIdentity(t)

	serverConf, err := NewConfigBuilder(ident).BuildServerConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), serverConf.MinVersion)
	assert.Equal(t, tls.RequireAnyClientCert, serverConf.ClientAuth)
	assert.Equal(t, []string{ALPNProtocol}, serverConf.NextProtos)
	assert.Len(t, serverConf.Certificates, 1)
	assert.NotNil(t, serverConf.VerifyPeerCertificate)

	clientConf, err := NewConfigBuilder(ident).
		WithNextProtos([]string{"custom/1"}).
		BuildClientConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"custom/1"}, clientConf.NextProtos)
}

func TestHandshakeMutualAuth(t *testing.T) {
	serverIdent := newTestIdentity(t)
	clientIdent := newTestIdentity(t)

	serverConf, err := NewConfigBuilder(serverIdent).BuildServerConfig()
	require.NoError(t, err)
	clientConf, err := NewConfigBuilder(clientIdent).BuildClientConfig()
	require.NoError(t, err)

	serverState, clientState, serverErr, clientErr := runHandshake(t, serverConf, clientConf)
	require.NoError(t, serverErr)
	require.NoError(t, clientErr)

	// 双方都认证出对方的 PeerID
	peerSeenByServer, err := PeerIDFromConnectionState(serverState)
	require.NoError(t, err)
	assert.True(t, peerSeenByServer.Equal(clientIdent.PeerID()))

	peerSeenByClient, err := PeerIDFromConnectionState(clientState)
	require.NoError(t, err)
	assert.True(t, peerSeenByClient.Equal(serverIdent.PeerID()))

	assert.Equal(t, ALPNProtocol, clientState.NegotiatedProtocol)
}

func TestHandshakeExpectedPeer(t *testing.T) {
	serverIdent := newTestIdentity(t)
	clientIdent := newTestIdentity(t)

	serverConf, err := NewConfigBuilder(serverIdent).BuildServerConfig()
	require.NoError(t, err)
	clientConf, err := NewConfigBuilder(clientIdent).
		WithExpectedPeer(serverIdent.PeerID()).
		BuildClientConfig()
	require.NoError(t, err)

	_, _, serverErr, clientErr := runHandshake(t, serverConf, clientConf)
	assert.NoError(t, serverErr)
	assert.NoError(t, clientErr)
}

func TestHandshakeExpectedPeerMismatch(t *testing.T) {
	serverIdent := newTestIdentity(t)
	clientIdent := newTestIdentity(t)
	strangerIdent := newTestIdentity(t)

	serverConf, err := NewConfigBuilder(serverIdent).BuildServerConfig()
	require.NoError(t, err)
	// 客户端期望的是第三方的身份，握手必须失败
	clientConf, err := NewConfigBuilder(clientIdent).
		WithExpectedPeer(strangerIdent.PeerID()).
		BuildClientConfig()
	require.NoError(t, err)

	_, _, _, clientErr := runHandshake(t, serverConf, clientConf)
	require.Error(t, clientErr)
	assert.Contains(t, clientErr.Error(), "peer ID mismatch")
}

func newTestIdentity(t testing.TB) *Identity {
	t.Helper()
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	ident, err := NewIdentity(priv)
	require.NoError(t, err)
	return ident
}

// runHandshake 在内存管道上执行一次完整的 TLS 握手
func runHandshake(t *testing.T, serverConf, clientConf *tls.Config) (serverState, clientState tls.ConnectionState, serverErr, clientErr error) {
	t.Helper()

	clientRaw, serverRaw := net.Pipe()
	deadline := time.Now().Add(10 * time.Second)
	require.NoError(t, clientRaw.SetDeadline(deadline))
	require.NoError(t, serverRaw.SetDeadline(deadline))

	server := tls.Server(serverRaw, serverConf)
	client := tls.Client(clientRaw, clientConf)
	defer server.Close()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- server.Handshake()
	}()
	clientErr = client.Handshake()
	serverErr = <-done

	if serverErr == nil {
		serverState = server.ConnectionState()
	}
	if clientErr == nil {
		clientState = client.ConnectionState()
	}
	return serverState, clientState, serverErr, clientErr
}
