package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultGatewayURL is the Discord gateway endpoint.
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

const writeTimeout = 10 * time.Second

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// GatewaySession keeps a Discord gateway connection alive so the bot shows
// as online, and reports when the first READY dispatch arrives.
type GatewaySession struct {
	Token      string
	URL        string
	Intents    int
	Dialer     *websocket.Dialer
	MaxBackoff time.Duration
	Log        logrus.FieldLogger

	ready     chan struct{}
	readyOnce sync.Once
	seq       atomic.Int64
	writeMu   sync.Mutex
}

// NewGatewaySession creates a session for the given bot token.
func NewGatewaySession(token string, log logrus.FieldLogger) *GatewaySession {
	return &GatewaySession{
		Token:      token,
		URL:        DefaultGatewayURL,
		Dialer:     websocket.DefaultDialer,
		MaxBackoff: 2 * time.Minute,
		Log:        log,
		ready:      make(chan struct{}),
	}
}

func (g *GatewaySession) Ready() <-chan struct{} { return g.ready }

func (g *GatewaySession) isReady() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

// Run connects and reconnects until ctx is cancelled. A failure before the
// first READY is returned to the caller.
func (g *GatewaySession) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		readied, err := g.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if !g.isReady() {
			return fmt.Errorf("discord gateway: %w", err)
		}
		if readied {
			backoff = time.Second
		}
		g.Log.WithError(err).Warnf("discord gateway disconnected, reconnecting in %v", backoff)
		if err := sleepContext(ctx, backoff); err != nil {
			return nil
		}
		backoff *= 2
		if backoff > g.MaxBackoff {
			backoff = g.MaxBackoff
		}
	}
}

// session runs one connection until it fails. readied reports whether this
// connection reached READY.
func (g *GatewaySession) session(ctx context.Context) (readied bool, err error) {
	conn, _, err := g.Dialer.DialContext(ctx, g.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return false, fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return false, fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var h struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.D, &h); err != nil || h.HeartbeatInterval <= 0 {
		return false, fmt.Errorf("bad hello payload: %s", string(hello.D))
	}
	var acked atomic.Bool
	acked.Store(true)
	go g.heartbeat(conn, time.Duration(h.HeartbeatInterval)*time.Millisecond, &acked, done)

	if err := g.identify(conn); err != nil {
		return false, fmt.Errorf("identify: %w", err)
	}

	for {
		var p gatewayPayload
		if err := conn.ReadJSON(&p); err != nil {
			return readied, fmt.Errorf("read: %w", err)
		}
		if p.S != nil {
			g.seq.Store(*p.S)
		}
		switch p.Op {
		case opDispatch:
			if p.T == "READY" {
				var r struct {
					User struct {
						Username string `json:"username"`
					} `json:"user"`
				}
				_ = json.Unmarshal(p.D, &r)
				g.Log.WithField("user", r.User.Username).Info("discord gateway ready")
				readied = true
				g.readyOnce.Do(func() { close(g.ready) })
			}
		case opHeartbeat:
			if err := g.sendHeartbeat(conn); err != nil {
				return readied, fmt.Errorf("heartbeat: %w", err)
			}
		case opReconnect:
			return readied, errors.New("server requested reconnect")
		case opInvalidSession:
			return readied, errors.New("invalid session")
		case opHeartbeatAck:
			acked.Store(true)
		}
	}
}

func (g *GatewaySession) identify(conn *websocket.Conn) error {
	return g.write(conn, map[string]interface{}{
		"op": opIdentify,
		"d": map[string]interface{}{
			"token":   g.Token,
			"intents": g.Intents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "rsisentinel",
				"device":  "rsisentinel",
			},
		},
	})
}

// heartbeat closes conn when the previous beat was never acknowledged, which
// makes the read loop fail and Run reconnect.
func (g *GatewaySession) heartbeat(conn *websocket.Conn, interval time.Duration, acked *atomic.Bool, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !acked.Swap(false) {
				g.Log.Warn("discord heartbeat not acknowledged, dropping connection")
				conn.Close()
				return
			}
			if err := g.sendHeartbeat(conn); err != nil {
				g.Log.WithError(err).Warn("discord heartbeat failed")
				conn.Close()
				return
			}
		}
	}
}

func (g *GatewaySession) sendHeartbeat(conn *websocket.Conn) error {
	var d interface{}
	if s := g.seq.Load(); s > 0 {
		d = s
	}
	return g.write(conn, map[string]interface{}{"op": opHeartbeat, "d": d})
}

func (g *GatewaySession) write(conn *websocket.Conn, v interface{}) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
