package net

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestServerAndDialExchangeFrames(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", Options{}, zap.NewNop())
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws://"+srv.Addr().String()+"/ws", Options{}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	var peer *Session
	select {
	case peer = <-srv.NewSessions():
	case <-time.After(2 * time.Second):
		t.Fatal("no session accepted")
	}
	defer peer.Close()

	require.NoError(t, client.Send([]byte("hello")))
	assert.Equal(t, []byte("hello"), recv(t, peer.InQueue))

	require.NoError(t, peer.Send([]byte{0x28, 0xB5}))
	assert.Equal(t, []byte{0x28, 0xB5}, recv(t, client.InQueue))
}

func TestSendAfterCloseFails(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", Options{}, zap.NewNop())
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	client, err := Dial(context.Background(), "ws://"+srv.Addr().String()+"/ws", Options{}, zap.NewNop())
	require.NoError(t, err)
	client.Close()
	client.Close()

	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.Send([]byte("late")), ErrClosed)
	select {
	case <-client.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestOversizedFrameClosesSession(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", Options{MaxFrameBytes: 16}, zap.NewNop())
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws://"+srv.Addr().String()+"/ws", Options{}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	var peer *Session
	select {
	case peer = <-srv.NewSessions():
	case <-time.After(2 * time.Second):
		t.Fatal("no session accepted")
	}

	require.NoError(t, client.Send(make([]byte, 64)))
	select {
	case <-peer.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("oversized frame did not close the session")
	}
	assert.Empty(t, peer.InQueue)
}
