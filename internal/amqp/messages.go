package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"myexpense/internal/core"
	"myexpense/internal/ledger"
)

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage carries a committed ledger change to the mirror worker.
// Create, update and delete carry the full record; seed carries the set.
type ChangeMessage struct {
	Op          ledger.Op          `json:"op"`
	Transaction core.Transaction   `json:"transaction,omitzero"`
	Records     []core.Transaction `json:"records,omitempty"`
	Revision    int64              `json:"revision"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewChangeMessage creates a message for c, stamped with the change time or
// now when the change has none.
func NewChangeMessage(c ledger.Change) *ChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Op:          c.Op,
		Transaction: c.Transaction,
		Records:     c.Records,
		Revision:    c.Revision,
		Timestamp:   ts,
	}
}

func (m *ChangeMessage) Change() ledger.Change {
	return ledger.Change{
		Op:          m.Op,
		Transaction: m.Transaction,
		Records:     m.Records,
		Revision:    m.Revision,
		At:          m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ChangeMessage) Validate() error {
	switch m.Op {
	case ledger.OpCreate, ledger.OpUpdate, ledger.OpDelete:
		if m.Transaction.ID == "" {
			return fmt.Errorf("%w: %s without transaction id", ErrInvalidMessage, m.Op)
		}
	case ledger.OpSeed:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, m.Op)
	}
	return nil
}
