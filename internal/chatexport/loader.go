// Package chatexport reads exported chat-history documents.
package chatexport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sarcasm-review/internal/models"
)

// ErrNoMessages is returned when the document has no messages array.
var ErrNoMessages = errors.New("export has no user_data.messages array")

type document struct {
	UserData *struct {
		Messages []rawMessage `json:"messages"`
	} `json:"user_data"`
}

type rawMessage struct {
	Sender string  `json:"sender"`
	Text   *string `json:"text"`
	SentAt string  `json:"sent_at"`
}

// LoadFile reads and parses the export at path.
func LoadFile(path string) ([]models.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	msgs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return msgs, nil
}

// Load decodes an export document of the form
// {"user_data": {"messages": [{"sender", "text", "sent_at"}, ...]}}.
// A null text is loaded as an empty string.
func Load(r io.Reader) ([]models.Message, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if doc.UserData == nil || doc.UserData.Messages == nil {
		return nil, ErrNoMessages
	}

	msgs := make([]models.Message, 0, len(doc.UserData.Messages))
	for i, raw := range doc.UserData.Messages {
		sentAt, err := ParseTimestamp(raw.SentAt)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		var text string
		if raw.Text != nil {
			text = *raw.Text
		}
		msgs = append(msgs, models.Message{
			Index:     i,
			Sender:    models.Sender(raw.Sender),
			Text:      text,
			SentAtRaw: raw.SentAt,
			SentAt:    sentAt,
		})
	}
	return msgs, nil
}

// FilterSender returns the messages written by sender, preserving order.
func FilterSender(msgs []models.Message, sender models.Sender) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Sender == sender {
			out = append(out, m)
		}
	}
	return out
}

// Layouts tried in order; the first four carry a zone, the rest are naive.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the mixed ISO-8601 forms found in exports.
// Values without a zone are taken as UTC. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, errors.New("empty sent_at")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised sent_at %q", s)
}
