package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidMessage = errors.New("invalid sync message")

// ProfileSyncMessage tells the worker that a profile changed. It carries no
// ledger data: the worker reads the current state from the database, so a
// notice for a profile that no longer exists means "remove its mirror".
type ProfileSyncMessage struct {
	Profile   string    `json:"profile"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProfileSyncMessage(profile string, revision int64) *ProfileSyncMessage {
	return &ProfileSyncMessage{
		Profile:   profile,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ProfileSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProfileSyncMessageFromJSON decodes a message and rejects notices without
// a profile name.
func ProfileSyncMessageFromJSON(data []byte) (*ProfileSyncMessage, error) {
	var msg ProfileSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Profile) == "" {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
