package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"recruitai/interview-orchestrator/internal/config"
	"recruitai/interview-orchestrator/internal/models"
)

// ErrMissingAPIKey blocks session creation when realtime credentials are
// absent. There is no fallback transport.
var ErrMissingAPIKey = fmt.Errorf("realtime API key not configured")

const eventBufferSize = 64

// NewFactory returns a Factory bound to the configured realtime backend.
func NewFactory(cfg config.RealtimeConfig, log *logrus.Entry) Factory {
	return func() (Client, error) {
		return NewWSClient(cfg, log)
	}
}

type registeredTool struct {
	tool    Tool
	handler ToolHandler
}

// wsClient speaks the realtime websocket protocol: JSON events in both
// directions, audio as base64 PCM deltas, tool invocations as function_call
// events.
type wsClient struct {
	cfg  config.RealtimeConfig
	log  *logrus.Entry
	conn *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	tools    map[string]registeredTool
	partials map[string]*strings.Builder

	events    chan Event
	closeOnce sync.Once
}

// NewWSClient builds an unconnected client. Tools may be registered until
// Connect is called.
func NewWSClient(cfg config.RealtimeConfig, log *logrus.Entry) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &wsClient{
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		tools:    make(map[string]registeredTool),
		partials: make(map[string]*strings.Builder),
		events:   make(chan Event, eventBufferSize),
	}, nil
}

// AddTool implements Client. Must be called before Connect.
func (c *wsClient) AddTool(tool Tool, handler ToolHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return fmt.Errorf("cannot register tool %q after connect", tool.Name)
	}
	c.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	return nil
}

// Connect implements Client.
func (c *wsClient) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	url := c.cfg.BaseURL + "?model=" + c.cfg.Model
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("failed to open realtime session: %w", err)
	}
	conn.SetReadLimit(1 << 22)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Disconnect implements Client. Safe to call repeatedly.
func (c *wsClient) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "session ended")
		}
	})
	return err
}

// UpdateSession implements Client.
func (c *wsClient) UpdateSession(ctx context.Context, cfg SessionConfig) error {
	c.mu.Lock()
	tools := make([]map[string]interface{}, 0, len(c.tools))
	for _, rt := range c.tools {
		tools = append(tools, map[string]interface{}{
			"type":        "function",
			"name":        rt.tool.Name,
			"description": rt.tool.Description,
			"parameters":  rt.tool.Parameters,
		})
	}
	c.mu.Unlock()

	voice := cfg.Voice
	if voice == "" {
		voice = c.cfg.Voice
	}

	return c.write(ctx, map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"instructions":              cfg.Instructions,
			"voice":                     voice,
			"tools":                     tools,
			"input_audio_transcription": map[string]string{"model": "whisper-1"},
		},
	})
}

// SendUserMessage implements Client.
func (c *wsClient) SendUserMessage(ctx context.Context, text string) error {
	err := c.write(ctx, map[string]interface{}{
		"type": "conversation.item.create",
		"item": map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]string{
				{"type": "input_text", "text": text},
			},
		},
	})
	if err != nil {
		return err
	}
	return c.write(ctx, map[string]string{"type": "response.create"})
}

// AppendInputAudio implements Client.
func (c *wsClient) AppendInputAudio(data []byte) error {
	return c.write(c.ctx, map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(data),
	})
}

// Events implements Client.
func (c *wsClient) Events() <-chan Event {
	return c.events
}

func (c *wsClient) write(ctx context.Context, v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("realtime session not connected")
	}
	return wsjson.Write(ctx, conn, v)
}

// serverEvent is the union of inbound event fields this client reads.
type serverEvent struct {
	Type       string `json:"type"`
	ItemID     string `json:"item_id"`
	Delta      string `json:"delta"`
	Transcript string `json:"transcript"`
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *wsClient) readLoop() {
	defer close(c.events)

	for {
		var ev serverEvent
		if err := wsjson.Read(c.ctx, c.conn, &ev); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.emit(Event{Kind: EventError, Err: err})
			return
		}

		switch ev.Type {
		case "conversation.item.input_audio_transcription.completed":
			c.emit(Event{
				Kind:   EventConversationUpdated,
				ItemID: ev.ItemID,
				Role:   models.RoleUser,
				Text:   ev.Transcript,
			})

		case "response.audio_transcript.delta":
			c.emit(Event{
				Kind:   EventConversationUpdated,
				ItemID: ev.ItemID,
				Role:   models.RoleAssistant,
				Text:   c.accumulate(ev.ItemID, ev.Delta),
			})

		case "response.audio.delta":
			if audio, err := base64.StdEncoding.DecodeString(ev.Delta); err == nil {
				c.emit(Event{
					Kind:       EventConversationUpdated,
					ItemID:     ev.ItemID,
					Role:       models.RoleAssistant,
					AudioDelta: audio,
				})
			}

		case "input_audio_buffer.speech_started":
			c.emit(Event{Kind: EventConversationInterrupted})

		case "response.function_call_arguments.done":
			c.handleToolCall(ev.CallID, ev.Name, ev.Arguments)

		case "error":
			msg := "unknown session error"
			if ev.Error != nil {
				msg = ev.Error.Message
			}
			c.emit(Event{Kind: EventError, Err: fmt.Errorf("%s", msg)})
		}
	}
}

// accumulate appends a transcript delta for an item and returns the full
// text so far. Repeated deltas for the same item coalesce downstream.
func (c *wsClient) accumulate(itemID, delta string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.partials[itemID]
	if !ok {
		b = &strings.Builder{}
		c.partials[itemID] = b
	}
	b.WriteString(delta)
	return b.String()
}

func (c *wsClient) handleToolCall(callID, name, arguments string) {
	c.mu.Lock()
	rt, ok := c.tools[name]
	c.mu.Unlock()

	if !ok {
		c.log.WithField("tool", name).Warn("model invoked unregistered tool")
		return
	}

	go func() {
		output := map[string]interface{}{"ok": true}
		result, err := rt.handler(c.ctx, json.RawMessage(arguments))
		if err != nil {
			output = map[string]interface{}{"ok": false, "error": err.Error()}
		} else if result != nil {
			output = map[string]interface{}{"ok": true, "result": result}
		}

		encoded, _ := json.Marshal(output)
		if err := c.write(c.ctx, map[string]interface{}{
			"type": "conversation.item.create",
			"item": map[string]interface{}{
				"type":    "function_call_output",
				"call_id": callID,
				"output":  string(encoded),
			},
		}); err != nil {
			return
		}
		_ = c.write(c.ctx, map[string]string{"type": "response.create"})
	}()
}

func (c *wsClient) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.WithField("kind", ev.Kind).Debug("realtime event buffer full, dropping")
	}
}
