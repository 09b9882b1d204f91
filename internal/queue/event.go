// Package queue defines message payloads exchanged over the message broker.
package queue

// OfferAcceptedEvent is published when a client accepts an offer. The
// consumer turns it into an outbound email to the tasker; the payload
// carries everything needed so the consumer never queries the
// primary database.
type OfferAcceptedEvent struct {
	OfferID     string  `json:"offer_id"`
	TaskID      string  `json:"task_id"`
	TaskTitle   string  `json:"task_title"`
	TaskerID    string  `json:"tasker_id"`
	TaskerEmail string  `json:"tasker_email"`
	ClientName  string  `json:"client_name"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	AcceptedAt  string  `json:"accepted_at"`
}

// MessageCreatedEvent is published for every new message so the
// consumer can email the receiver. Delivery is best effort; the
// message row is already persisted when this fires.
type MessageCreatedEvent struct {
	MessageID     string  `json:"message_id"`
	TaskID        *string `json:"task_id,omitempty"`
	SenderName    string  `json:"sender_name"`
	ReceiverID    string  `json:"receiver_id"`
	ReceiverEmail string  `json:"receiver_email"`
	Preview       string  `json:"preview"`
	CreatedAt     string  `json:"created_at"`
}
