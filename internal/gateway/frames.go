package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/jujucrew/jubot/internal/domain"
)

// Gateway frames are JSON envelopes: an op code and an op-specific payload.
const (
	OpHello        = "hello"         // server -> client, carries heartbeat interval
	OpIdentify     = "identify"      // client -> server, carries the token
	OpReady        = "ready"         // server -> client, identify accepted
	OpHeartbeat    = "heartbeat"     // client -> server
	OpHeartbeatAck = "heartbeat_ack" // server -> client
	OpMessage      = "message"       // server -> client, one inbound chat message
	OpSend         = "send"          // client -> server, one outbound chat message
)

type Frame struct {
	Op string          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
}

type helloPayload struct {
	HeartbeatIntervalMS int `json:"heartbeat_interval_ms"`
}

type identifyPayload struct {
	Token string `json:"token"`
}

type readyPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
}

type sendPayload struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Nonce     string `json:"nonce"`
}

// messagePayload is the wire shape of an inbound message.
type messagePayload struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id,omitempty"`
	Channel string `json:"channel_id"`
	Author  struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		Roles []string `json:"roles,omitempty"`
	} `json:"author"`
	Content string `json:"content"`
}

func (p messagePayload) toDomain() domain.Message {
	return domain.Message{
		ID:         p.ID,
		GuildID:    p.GuildID,
		ChannelID:  p.Channel,
		AuthorID:   p.Author.ID,
		AuthorName: p.Author.Name,
		RoleIDs:    p.Author.Roles,
		Content:    p.Content,
	}
}

func newFrame(op string, payload interface{}) (Frame, error) {
	if payload == nil {
		return Frame{Op: op}, nil
	}
	d, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", op, err)
	}
	return Frame{Op: op, D: d}, nil
}

func (f Frame) decode(v interface{}) error {
	if len(f.D) == 0 {
		return fmt.Errorf("%s frame has no payload", f.Op)
	}
	return json.Unmarshal(f.D, v)
}
