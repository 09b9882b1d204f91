package model

import "time"

// Review mirrors the `reviews` table. The (TaskID, ReviewerID) pair
// is unique: a user reviews a given task at most once. Creating a
// review recomputes the reviewee's cached rating and review count.
type Review struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	ReviewerID string    `json:"reviewerId"`
	RevieweeID string    `json:"revieweeId"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReviewWithReviewer joins a review with the public profile of its
// author, the shape returned when listing a user's received reviews.
type ReviewWithReviewer struct {
	Review
	Reviewer *PublicUser `json:"reviewer"`
}
