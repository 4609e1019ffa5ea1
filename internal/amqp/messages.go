package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseSyncMessage asks the worker to mirror one expense version to Google Sheets.
// The worker reloads the expense from the store, so the message stays small.
type ExpenseSyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id string, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseSyncMessageFromJSON rejects messages without an id.
func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errMissingID
	}
	return &msg, nil
}
