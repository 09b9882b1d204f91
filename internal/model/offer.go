package model

import "time"

// OfferStatus enumerates the states of an offer. At most one offer
// per task may be accepted, and acceptance is only valid while the
// task is still open.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// ValidOfferStatus reports whether s is a known offer status.
func ValidOfferStatus(s OfferStatus) bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected:
		return true
	}
	return false
}

// Offer mirrors the `offers` table.
type Offer struct {
	ID                string      `json:"id"`
	TaskID            string      `json:"taskId"`
	TaskerID          string      `json:"taskerId"`
	Amount            float64     `json:"amount"`
	Currency          string      `json:"currency"`
	Message           string      `json:"message,omitempty"`
	EstimatedDuration string      `json:"estimatedDuration,omitempty"`
	Status            OfferStatus `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// OfferWithTasker joins an offer with the tasker who made it.
type OfferWithTasker struct {
	Offer
	Tasker *PublicUser `json:"tasker"`
}

// OfferWithTask joins an offer with the task it targets.
type OfferWithTask struct {
	Offer
	Task *Task `json:"task"`
}
