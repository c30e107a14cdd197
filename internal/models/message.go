package models

import "time"

// Sender identifies who wrote a message in the chat export.
type Sender string

const (
	SenderUser Sender = "User"
	SenderAI   Sender = "AI"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Message represents a single chat message loaded from the export file.
// Messages are never modified after loading.
type Message struct {
	Index     int       `json:"index"`   // Position in the export
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	SentAtRaw string    `json:"sent_at"` // Original string from the export
	SentAt    time.Time `json:"sent_at_utc"`
}
