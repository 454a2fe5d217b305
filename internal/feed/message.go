package feed

import (
	"encoding/json"
	"time"

	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/round"
)

// MessageType identifies a websocket message
type MessageType string

const (
	// Client → server
	MessageTypeBet    MessageType = "bet"
	MessageTypeSell   MessageType = "sell"
	MessageTypeAmount MessageType = "amount"

	// Server → client
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeResult   MessageType = "result"
	MessageTypeError    MessageType = "error"
)

// Message is the envelope of every websocket message
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Type: messageType, Data: b, Timestamp: time.Now()}, nil
}

// TradeData is the payload of bet and sell requests
type TradeData struct {
	Outcome market.Outcome `json:"outcome"`
}

// AmountData is the payload of an amount selection
type AmountData struct {
	Amount float64 `json:"amount"`
}

// SnapshotData carries the state after an event
type SnapshotData struct {
	Event round.EventType `json:"event"`
	State round.Snapshot  `json:"state"`
}

// ResultData answers a client request
type ResultData struct {
	Action   MessageType      `json:"action"`
	OK       bool             `json:"ok"`
	Error    string           `json:"error,omitempty"`
	Position *market.Position `json:"position,omitempty"` // bet
	Cash     float64          `json:"cash,omitempty"`     // sell
}

// ErrorData reports a malformed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
