package model

import "time"

// Message mirrors the `messages` table. TaskID is nullable: a null
// task reference marks a direct message outside any task context.
type Message struct {
	ID         string     `json:"id"`
	TaskID     *string    `json:"taskId"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Content    string     `json:"content"`
	IsRead     bool       `json:"isRead"`
	ReadAt     *time.Time `json:"readAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Notification types.
const (
	NotificationNewMessage    = "new_message"
	NotificationOfferAccepted = "offer_accepted"
)

// Notification mirrors the `notifications` table. MessageID is a
// stored back-reference to the message that produced a new_message
// notification, populated at creation time.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	MessageID *string   `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationFilter narrows notification listing queries.
type NotificationFilter struct {
	Type   string
	IsRead *bool
}
