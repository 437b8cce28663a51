package api

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"endless-runner/internal/config"
	"endless-runner/internal/protocol"
	"endless-runner/internal/relay"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// ErrSendBufferFull is returned when a client cannot keep up. The relay
// treats it like any other send failure and drops the player.
var ErrSendBufferFull = errors.New("websocket send buffer full")

var errConnClosed = errors.New("websocket connection closed")

// wsConn adapts one websocket to relay.Conn. Sends are queued to a writer
// goroutine so the relay loop never waits on the network.
type wsConn struct {
	conn *websocket.Conn
	ip   string
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(conn *websocket.Conn, ip string) *wsConn {
	return &wsConn{
		conn:   conn,
		ip:     ip,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Send implements relay.Conn.
func (c *wsConn) Send(b []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close implements relay.Conn. The writer goroutine closes the socket,
// which in turn ends the read loop.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

// writeLoop drains the send queue and keeps the connection alive with pings
func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
			RecordWSMessage("out")
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// WebSocketHub upgrades connections and bridges them to the relay
type WebSocketHub struct {
	relay    *relay.Relay
	upgrader websocket.Upgrader
	limiter  *ConnLimiter

	messagesPerSecond float64
	messageBurst      int
}

// NewWebSocketHub creates a hub with connection limiting
func NewWebSocketHub(r *relay.Relay, relayCfg config.RelayConfig, origins *OriginChecker) *WebSocketHub {
	if origins == nil {
		origins = NewOriginChecker(config.DefaultServer().CORSOrigins)
	}
	return &WebSocketHub{
		relay: r,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
		limiter:           NewConnLimiter(relayCfg.MaxConnections, relayCfg.MaxConnectionsPerIP),
		messagesPerSecond: relayCfg.MessagesPerSecond,
		messageBurst:      relayCfg.MessageBurst,
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	return h.limiter.Total()
}

// Limiter exposes the connection caps for stats
func (h *WebSocketHub) Limiter() *ConnLimiter {
	return h.limiter
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if ok, reason := h.limiter.Acquire(ip); !ok {
		log.Printf("⚠️ WebSocket connection rejected from %s: %s", ip, reason)
		RecordConnectionRejected(reason)
		status := http.StatusTooManyRequests
		if reason == "ws_total_limit" {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "Too many connections", status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.limiter.Release(ip)
		return
	}

	client := newWSConn(conn, ip)
	go client.writeLoop()

	playerID, err := h.relay.Join(client)
	if err != nil {
		log.Printf("⚠️ Relay refused connection from %s: %v", ip, err)
		client.Close()
		h.limiter.Release(ip)
		return
	}

	count := h.limiter.Total()
	log.Printf("📱 Client %s connected from %s (%d total)", playerID, ip, count)
	UpdateWSConnections(count)

	go h.readLoop(client, playerID)
}

// readLoop decodes client frames and hands them to the relay. Malformed
// frames are logged and skipped; the connection stays open.
func (h *WebSocketHub) readLoop(c *wsConn, playerID string) {
	defer func() {
		h.relay.Submit(relay.Leave{PlayerID: playerID})
		c.Close()
		h.limiter.Release(c.ip)

		count := h.limiter.Total()
		log.Printf("📱 Client %s disconnected (%d remaining)", playerID, count)
		UpdateWSConnections(count)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var limiter *rate.Limiter
	if h.messagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.messagesPerSecond), max(h.messageBurst, 1))
	}

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ WebSocket read error from %s: %v", playerID, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		RecordWSMessage("in")

		if limiter != nil && !limiter.Allow() {
			messagesDropped.WithLabelValues("rate_limit").Inc()
			continue
		}

		ev, err := protocol.DecodeClientEvent(message)
		if err != nil {
			log.Printf("📨 Discarding message from %s: %v", playerID, err)
			messagesDropped.WithLabelValues("malformed").Inc()
			continue
		}

		if !h.relay.Submit(relay.Message{PlayerID: playerID, Event: ev}) {
			return
		}
	}
}
