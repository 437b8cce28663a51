// Package client drives a local runner session against the relay: the
// websocket link, the frame loop and an optional autopilot.
package client

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"endless-runner/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	// MaxEventBuffer bounds decoded relay events waiting for the next frame
	MaxEventBuffer = 256

	// HandshakeTimeout for the initial dial
	HandshakeTimeout = 10 * time.Second

	// WriteTimeout for a single outgoing frame
	WriteTimeout = 5 * time.Second
)

// ErrNotConnected is returned by Send while the link is down.
var ErrNotConnected = errors.New("client: not connected to relay")

// Link is the runner's websocket connection to the relay. Decoded events
// are delivered on Events; the frame loop applies them. A lost connection
// is never redialled: the session continues locally.
type Link struct {
	url    string
	dialer websocket.Dialer

	conn      *websocket.Conn
	connected bool
	mu        sync.RWMutex
	writeMu   sync.Mutex

	// Output channel for relay events (bounded)
	Events chan protocol.ServerEvent

	done      chan struct{}
	closeOnce sync.Once
}

// NewLink creates an unconnected link to the relay at url.
func NewLink(url string) *Link {
	return &Link{
		url: url,
		dialer: websocket.Dialer{
			HandshakeTimeout: HandshakeTimeout,
		},
		Events: make(chan protocol.ServerEvent, MaxEventBuffer),
		done:   make(chan struct{}),
	}
}

// Connect dials the relay and starts the read goroutine.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return nil
	}

	log.Printf("🔌 Connecting to relay %s...", l.url)

	conn, resp, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	l.conn = conn
	l.connected = true
	log.Println("✅ Connected to relay")

	go l.readLoop(conn)
	return nil
}

// Connected reports whether the relay is reachable.
func (l *Link) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Send implements game.Link.
func (l *Link) Send(event string, payload any) error {
	l.mu.RLock()
	conn, ok := l.conn, l.connected
	l.mu.RUnlock()

	if !ok {
		return ErrNotConnected
	}

	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		l.markDown(conn)
		return err
	}
	return nil
}

// readLoop decodes relay frames until the connection drops. Frames that
// fail to decode are logged and skipped.
func (l *Link) readLoop(conn *websocket.Conn) {
	defer l.markDown(conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-l.done:
			default:
				log.Printf("⚠️ Relay connection lost, continuing offline: %v", err)
			}
			return
		}

		ev, err := protocol.DecodeServerEvent(message)
		if err != nil {
			log.Printf("⚠️ Discarding relay frame: %v", err)
			continue
		}

		select {
		case l.Events <- ev:
		case <-l.done:
			return
		}
	}
}

// markDown drops conn if it is still the active connection.
func (l *Link) markDown(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != conn {
		return
	}
	l.connected = false
	conn.Close()
}

// Close disconnects from the relay. Safe to call more than once.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		conn := l.conn
		l.connected = false
		l.mu.Unlock()

		if conn == nil {
			return
		}
		l.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.writeMu.Unlock()
		conn.Close()
		log.Println("🔌 Relay link closed")
	})
	return nil
}
