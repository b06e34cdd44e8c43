// Package inbox supplies inbound recruiter messages to the pipeline. The
// current source is a JSON export produced by the browser session layer; the
// pipeline makes no assumption about ordering or de-duplication.
package inbox

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one inbound recruiter message.
type Message struct {
	ID         uuid.UUID `json:"id,omitempty"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// FromFile reads a JSON array of messages from an export file. Messages
// without an ID get one assigned; messages without text are dropped.
func FromFile(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inbox file %q: %w", path, err)
	}

	var raw []Message
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing inbox file %q: %w", path, err)
	}

	messages := make([]Message, 0, len(raw))
	for _, msg := range raw {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		if strings.TrimSpace(msg.Sender) == "" {
			msg.Sender = "Unknown sender"
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
