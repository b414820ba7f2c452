// Package net carries sync frames over websocket connections. Socket I/O
// runs in per-session goroutines; the simulation goroutine only touches the
// InQueue and OutQueue channels.
package net

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrClosed       = errors.New("session closed")
	ErrBackpressure = errors.New("session output queue full")
)

// Options sizes the session queues, frames and socket deadlines.
type Options struct {
	InQueueSize   int
	OutQueueSize  int
	MaxFrameBytes int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.InQueueSize <= 0 {
		o.InQueueSize = 128
	}
	if o.OutQueueSize <= 0 {
		o.OutQueueSize = 256
	}
	if o.MaxFrameBytes <= 0 {
		o.MaxFrameBytes = 1 << 20
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// Session is one websocket peer.
type Session struct {
	ID   uint64
	conn *websocket.Conn

	InQueue  chan []byte // simulation reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	RemoteAddr string

	readTimeout  time.Duration
	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn *websocket.Conn, id uint64, opts Options, log *zap.Logger) *Session {
	opts = opts.withDefaults()
	// larger frames fail the read and close the session
	conn.SetReadLimit(opts.MaxFrameBytes)
	return &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, opts.InQueueSize),
		OutQueue:     make(chan []byte, opts.OutQueueSize),
		RemoteAddr:   conn.RemoteAddr().String(),
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues a frame without blocking. A full queue means the peer is not
// keeping up; the session is closed.
func (s *Session) Send(frame []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case s.OutQueue <- frame:
		return nil
	default:
		s.log.Warn("output queue full, closing slow peer")
		s.Close()
		return ErrBackpressure
	}
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Inbox returns the frames received from the peer.
func (s *Session) Inbox() <-chan []byte { return s.InQueue }

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

func (s *Session) readLoop() {
	defer s.Close()

	for {
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		// dropping a frame would desync the peer, so wait for room
		select {
		case s.InQueue <- frame:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case frame := <-s.OutQueue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write failed", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
