package models

import "time"

// Book event types published to the message broker.
const (
	EventBookCreated = "book.created"
	EventBookDeleted = "book.deleted"
)

// BookEvent describes a change to a book, published for downstream consumers.
type BookEvent struct {
	Type       string    `json:"type"`
	BookID     string    `json:"bookId"`
	UserID     string    `json:"userId"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
