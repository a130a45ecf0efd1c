package game

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry on an airport's board.
type Message struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AirportID  string    `json:"airportId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

const maxMessageLen = 500

// MessageBoard keeps a bounded append-only history per airport. Oldest
// messages fall off when an airport's list exceeds the cap.
type MessageBoard struct {
	MaxPerAirport int                  `json:"maxPerAirport"`
	Messages      map[string][]Message `json:"messages"`
}

func NewMessageBoard(maxPerAirport int) *MessageBoard {
	return &MessageBoard{
		MaxPerAirport: maxPerAirport,
		Messages:      make(map[string][]Message),
	}
}

func (b *MessageBoard) Post(authorID, authorName, airportID, content string) (Message, error) {
	if content == "" {
		return Message{}, ErrEmptyMessage
	}
	if len(content) > maxMessageLen {
		return Message{}, ErrMessageTooLong
	}
	msg := Message{
		ID:         uuid.NewString(),
		AuthorID:   authorID,
		AuthorName: authorName,
		AirportID:  airportID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	list := append(b.Messages[airportID], msg)
	if over := len(list) - b.MaxPerAirport; over > 0 {
		list = append([]Message(nil), list[over:]...)
	}
	b.Messages[airportID] = list
	return msg, nil
}

// At returns the newest messages for an airport, most recent first.
func (b *MessageBoard) At(airportID string, limit int) []Message {
	list := b.Messages[airportID]
	out := make([]Message, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (b *MessageBoard) Count(airportID string) int {
	return len(b.Messages[airportID])
}

// Clone deep-copies the board for snapshot building.
func (b *MessageBoard) Clone() *MessageBoard {
	cp := NewMessageBoard(b.MaxPerAirport)
	for k, v := range b.Messages {
		cp.Messages[k] = append([]Message(nil), v...)
	}
	return cp
}
