package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mesaYaBooking/internal/modules/realtime/domain"
)

const (
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
	CommandPing        = "ping"

	defaultCommandTimeout = 10 * time.Second
)

var (
	ErrUnsupportedCommand = errors.New("unsupported action")
	ErrMissingTopic       = errors.New("missing topic")
	ErrTopicNotAllowed    = errors.New("topic not allowed on this stream")
)

// Command is a frame sent by a websocket client:
// {"action": "...", "topic": "...", "payload": {...}}.
type Command struct {
	Action  string          `json:"action"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Name is the lowercased action.
func (c Command) Name() string {
	return strings.ToLower(strings.TrimSpace(c.Action))
}

// Decode unmarshals the payload into out; an empty payload leaves out untouched.
func (c Command) Decode(out any) error {
	if len(c.Payload) == 0 || string(c.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(c.Payload, out)
}

// CommandFunc answers one named command. A returned error is reported back to
// the client as an <entity>.error message.
type CommandFunc func(ctx context.Context, client *Client, cmd Command) error

// CommandRouter runs the commands a client sends, one at a time and in the
// order they were read. Every stream answers subscribe, unsubscribe and ping;
// streams add their own commands with Handle.
type CommandRouter struct {
	hub     *Hub
	timeout time.Duration

	mu     sync.RWMutex
	routes map[string]CommandFunc
}

func NewCommandRouter(hub *Hub) *CommandRouter {
	r := &CommandRouter{
		hub:     hub,
		timeout: defaultCommandTimeout,
		routes:  make(map[string]CommandFunc),
	}
	r.Handle(CommandSubscribe, r.subscribe)
	r.Handle(CommandUnsubscribe, r.unsubscribe)
	r.Handle(CommandPing, r.ping)
	return r
}

// Handle binds fn to the named command, replacing any previous binding.
func (r *CommandRouter) Handle(name string, fn CommandFunc) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || fn == nil {
		return
	}
	r.mu.Lock()
	r.routes[name] = fn
	r.mu.Unlock()
}

// Names lists the commands the router answers.
func (r *CommandRouter) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routes))
	for name := range r.routes {
		out = append(out, name)
	}
	return out
}

// Dispatch runs cmd on behalf of client. Frames without an action are dropped.
func (r *CommandRouter) Dispatch(client *Client, cmd Command) {
	name := cmd.Name()
	if client == nil || name == "" {
		return
	}

	r.mu.RLock()
	fn, ok := r.routes[name]
	r.mu.RUnlock()
	if !ok {
		slog.Debug("ws command unsupported", slog.String("streamId", client.streamID), slog.String("action", name))
		reject(client, "unknown", ErrUnsupportedCommand)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := fn(ctx, client, cmd); err != nil {
		slog.Warn("ws command failed",
			slog.String("userId", client.userID),
			slog.String("streamId", client.streamID),
			slog.String("action", name),
			slog.Any("error", err))
		reject(client, name, err)
	}
}

// subscribe adds a topic the stream was granted on attach and later dropped.
func (r *CommandRouter) subscribe(_ context.Context, client *Client, cmd Command) error {
	topic := strings.TrimSpace(cmd.Topic)
	if topic == "" {
		return ErrMissingTopic
	}
	if !client.mayFollow(topic) {
		return ErrTopicNotAllowed
	}
	r.hub.subscribe(client, topic)
	return nil
}

func (r *CommandRouter) unsubscribe(_ context.Context, client *Client, cmd Command) error {
	topic := strings.TrimSpace(cmd.Topic)
	if topic == "" {
		return ErrMissingTopic
	}
	r.hub.unsubscribe(client, topic)
	return nil
}

func (r *CommandRouter) ping(_ context.Context, client *Client, _ Command) error {
	client.SendDomainMessage(&domain.Message{
		Topic:     domain.TopicSystemPong,
		Entity:    domain.SystemEntity,
		Action:    domain.ActionPong,
		Metadata:  map[string]string{"streamId": client.streamID},
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func reject(client *Client, action string, err error) {
	client.SendDomainMessage(domain.BuildErrorMessage(client.entity, action, err.Error(), time.Now(), domain.Metadata{
		"streamId": client.streamID,
	}))
}
