package infrastructure

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mesaYaBooking/internal/modules/realtime/domain"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 1 << 16
)

var connectionSeq atomic.Uint64

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	sessionID  string
	streamID   string
	entity     string
	seq        uint64
	commands   *CommandRouter
	grants     map[string]struct{}
	subscribed map[string]struct{}
	closeOnce  sync.Once
	closed     bool
	sendMu     sync.RWMutex
	receiveAll bool
	closeHooks []func(*Client)
	hookMu     sync.Mutex
}

// NewClient creates a websocket client bound to one stream. conn may be nil in tests.
func NewClient(hub *Hub, conn *websocket.Conn, userID, sessionID, streamID, entity string, buf int) *Client {
	if buf <= 0 {
		buf = 16
	}
	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, buf),
		userID:     userID,
		sessionID:  sessionID,
		streamID:   strings.TrimSpace(streamID),
		entity:     strings.TrimSpace(entity),
		seq:        connectionSeq.Add(1),
		grants:     make(map[string]struct{}),
		subscribed: make(map[string]struct{}),
	}
	client.commands = NewCommandRouter(hub)
	return client
}

func (c *Client) UserID() string    { return c.userID }
func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) StreamID() string  { return c.streamID }
func (c *Client) Entity() string    { return c.entity }

// Commands exposes the router so handlers can bind stream specific commands
// before the pumps start.
func (c *Client) Commands() *CommandRouter { return c.commands }

// EnableReceiveAll marks the client as a global subscriber that receives every broadcasted message
// regardless of topic-specific subscriptions.
func (c *Client) EnableReceiveAll() {
	c.receiveAll = true
}

// key is unique per connection: one session may open the same stream twice.
func (c *Client) key() string {
	return fmt.Sprintf("%s:%s:%s#%d", c.userID, c.sessionID, c.streamID, c.seq)
}

// grant records the topics the stream may follow. Called on attach, before
// the read pump starts.
func (c *Client) grant(topics []string) {
	for _, topic := range topics {
		if trimmed := strings.TrimSpace(topic); trimmed != "" {
			c.grants[trimmed] = struct{}{}
		}
	}
}

func (c *Client) mayFollow(topic string) bool {
	if c.receiveAll {
		return true
	}
	_, ok := c.grants[topic]
	return ok
}

func (c *Client) isClosed() bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	return c.closed
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.invokeCloseHooks()
	})
}

// AddCloseHook registers a callback that will be executed once when the client closes.
func (c *Client) AddCloseHook(fn func(*Client)) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	c.closeHooks = append(c.closeHooks, fn)
	c.hookMu.Unlock()
}

func (c *Client) invokeCloseHooks() {
	c.hookMu.Lock()
	hooks := append([]func(*Client){}, c.closeHooks...)
	c.closeHooks = nil
	c.hookMu.Unlock()

	for _, hook := range hooks {
		func(h func(*Client)) {
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("ws close hook panic", slog.Any("error", r))
				}
			}()
			h(c)
		}(hook)
	}
}

// enqueue queues data without blocking; a full buffer detaches the client.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.RLock()
	if c.closed {
		c.sendMu.RUnlock()
		return false
	}
	select {
	case c.send <- data:
		c.sendMu.RUnlock()
		return true
	default:
		c.sendMu.RUnlock()
		slog.Warn("websocket send buffer full", slog.String("userId", c.userID), slog.String("sessionId", c.sessionID), slog.String("streamId", c.streamID))
		if c.hub != nil {
			go c.hub.detachClient(c)
		}
		return false
	}
}

func (c *Client) SendDomainMessage(msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal error", slog.Any("error", err))
		return
	}
	c.enqueue(data)
}

func (c *Client) sendSignedOut() {
	c.SendDomainMessage(&domain.Message{
		Topic:     domain.TopicSystemSignedOut,
		Entity:    domain.SystemEntity,
		Action:    domain.ActionSignedOut,
		Metadata:  map[string]string{"sessionId": c.sessionID},
		Timestamp: time.Now().UTC(),
	})
}

func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Warn("websocket ping error", slog.Any("error", err))
				return
			}
		}
	}
}

func (c *Client) ReadPump() {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	defer c.hub.detachClient(c)
	for {
		var cmd Command
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("userId", c.userID), slog.String("streamId", c.streamID), slog.Any("error", err))
			}
			return
		}
		c.processCommand(cmd)
	}
}

func (c *Client) processCommand(cmd Command) {
	c.commands.Dispatch(c, cmd)
}
