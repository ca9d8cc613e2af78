// Package gateway maintains the bot's websocket connection to the chat
// platform: identify on connect, protocol heartbeats, reconnect with capped
// backoff, and delivery of inbound messages to a handler.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
)

const (
	writeTimeout     = 5 * time.Second
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
	defaultHeartbeat = 25 * time.Second
)

// ErrNotConnected is returned by Send while the gateway is down.
var ErrNotConnected = errors.New("gateway: not connected")

// Client is a single gateway connection with automatic reconnect. Event
// hooks must be set before Connect and are invoked from the read loop
// goroutine.
type Client struct {
	url   string
	token string

	conn      *websocket.Conn
	wmu       sync.Mutex // serializes all websocket writes
	connected atomic.Bool
	closed    atomic.Bool

	hbMu   sync.Mutex
	hbStop chan struct{}

	OnConnected    func()
	OnDisconnected func()
	OnMessage      func(domain.Message)
	OnError        func(error)

	log logger.Logger
}

func New(url, token string, log logger.Logger) *Client {
	return &Client{url: url, token: token, log: log}
}

// Connect dials the gateway, identifies, and starts the read loop. The loop
// reconnects on failure until ctx is cancelled or Close is called.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dialAndIdentify(ctx)
	if err != nil {
		return err
	}
	c.conn = conn
	c.connected.Store(true)
	if c.OnConnected != nil {
		c.OnConnected()
	}

	go c.readLoop(ctx)
	return nil
}

// IsConnected reports whether the gateway link is currently up.
func (c *Client) IsConnected() bool {
	return c.connected.Load() && !c.closed.Load()
}

// Close tears the connection down for good; the read loop will not
// reconnect afterwards.
func (c *Client) Close() {
	c.closed.Store(true)
	c.closeConn()
}

// Send delivers one chat message to a channel. Every frame carries a fresh
// nonce so the platform can deduplicate retried sends.
func (c *Client) Send(channelID, content string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	frame, err := newFrame(OpSend, sendPayload{
		ChannelID: channelID,
		Content:   content,
		Nonce:     uuid.NewString(),
	})
	if err != nil {
		return err
	}
	return c.writeFrame(frame)
}

func (c *Client) writeFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	conn := c.conn
	if conn == nil {
		return ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Op, err)
	}
	return nil
}

func (c *Client) dialAndIdentify(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	identify, err := newFrame(OpIdentify, identifyPayload{Token: c.token})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	data, err := json.Marshal(identify)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("marshal identify: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send identify: %w", err)
	}
	return conn, nil
}

func (c *Client) closeConn() {
	c.stopHeartbeat()
	c.connected.Store(false)

	c.wmu.Lock()
	conn := c.conn
	c.conn = nil
	c.wmu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = conn.Close()
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.closeConn()
		if c.OnDisconnected != nil {
			c.OnDisconnected()
		}
	}()

	go func() {
		<-ctx.Done()
		c.closeConn()
	}()

	backoff := initialBackoff

	for {
		conn := c.currentConn()
		if conn == nil {
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
		} else {
			_, data, err := conn.ReadMessage()
			if err == nil {
				c.handleFrame(data)
				backoff = initialBackoff
				continue
			}
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
			c.reportError(fmt.Errorf("gateway read: %w", err))
		}

		c.closeConn()

		// Reconnect with doubling backoff, capped.
		for !c.closed.Load() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			conn, err := c.dialAndIdentify(ctx)
			if err != nil {
				c.reportError(fmt.Errorf("gateway reconnect (next in %v): %w", backoff, err))
				if backoff < maxBackoff {
					backoff *= 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
				}
				continue
			}

			c.wmu.Lock()
			c.conn = conn
			c.wmu.Unlock()
			c.connected.Store(true)
			backoff = initialBackoff
			if c.OnConnected != nil {
				c.OnConnected()
			}
			break
		}
		if c.closed.Load() {
			return
		}
	}
}

func (c *Client) currentConn() *websocket.Conn {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn
}

func (c *Client) handleFrame(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.reportError(fmt.Errorf("malformed gateway frame: %w", err))
		return
	}

	switch frame.Op {
	case OpHello:
		var hello helloPayload
		interval := defaultHeartbeat
		if err := frame.decode(&hello); err == nil && hello.HeartbeatIntervalMS > 0 {
			interval = time.Duration(hello.HeartbeatIntervalMS) * time.Millisecond
		}
		c.startHeartbeat(interval)

	case OpReady:
		var ready readyPayload
		if err := frame.decode(&ready); err != nil {
			c.reportError(fmt.Errorf("malformed ready frame: %w", err))
			return
		}
		c.log.Info("gateway ready",
			logger.String("session_id", ready.SessionID),
			logger.String("user", ready.UserName))

	case OpHeartbeatAck:
		// Nothing to do; the read itself proves liveness.

	case OpMessage:
		var payload messagePayload
		if err := frame.decode(&payload); err != nil {
			c.reportError(fmt.Errorf("malformed message frame: %w", err))
			return
		}
		if c.OnMessage != nil {
			c.OnMessage(payload.toDomain())
		}

	default:
		c.log.Debug("unhandled gateway op", logger.String("op", frame.Op))
	}
}

func (c *Client) startHeartbeat(interval time.Duration) {
	c.hbMu.Lock()
	defer c.hbMu.Unlock()

	if c.hbStop != nil {
		close(c.hbStop)
	}
	stop := make(chan struct{})
	c.hbStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				frame, err := newFrame(OpHeartbeat, nil)
				if err != nil {
					continue
				}
				if err := c.writeFrame(frame); err != nil {
					c.log.Warn("heartbeat write failed", logger.Error(err))
					return
				}
			}
		}
	}()
}

func (c *Client) stopHeartbeat() {
	c.hbMu.Lock()
	defer c.hbMu.Unlock()
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

func (c *Client) reportError(err error) {
	if c.OnError != nil {
		c.OnError(err)
		return
	}
	c.log.Warn("gateway error", logger.Error(err))
}
