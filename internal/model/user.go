package model

import "time"

// Role names stored in users.role. There is no guest role; an
// unauthenticated request simply carries no user.
const (
	RoleAdmin  = "admin"
	RoleTasker = "tasker"
	RoleClient = "client"
)

// User represents a row in the `users` table. The aggregate fields
// (Rating, ReviewCount, TotalEarnings, TotalTasks) are denormalized
// caches maintained by the review and payment write paths.
//
// Fields:
//  ID            – opaque UUID primary key.
//  Email         – unique, stored lower-cased.
//  PasswordHash  – bcrypt hash of the password.
//  Role          – one of admin/tasker/client.
//  FirstName     – profile first name.
//  LastName      – profile last name.
//  Bio           – free-form profile text.
//  Location      – free-form location string.
//  Phone         – contact phone number.
//  Skills        – list of skill tags, stored as JSON.
//  HourlyRate    – advertised hourly rate (nullable).
//  Rating        – cached mean of all review ratings for this user.
//  ReviewCount   – cached number of reviews received.
//  TotalEarnings – cached sum of completed payments.
//  TotalTasks    – cached number of tasks completed as tasker.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Bio           string    `json:"bio,omitempty"`
	Location      string    `json:"location,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Skills        []string  `json:"skills"`
	HourlyRate    *float64  `json:"hourlyRate,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	TotalEarnings float64   `json:"totalEarnings"`
	TotalTasks    int       `json:"totalTasks"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicUser is the profile shape exposed to other users. It omits
// the email and every auth-related column.
type PublicUser struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Role        string   `json:"role"`
	Bio         string   `json:"bio,omitempty"`
	Location    string   `json:"location,omitempty"`
	Skills      []string `json:"skills"`
	HourlyRate  *float64 `json:"hourlyRate,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
}

// Public strips the private columns off a full user row.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Bio:         u.Bio,
		Location:    u.Location,
		Skills:      u.Skills,
		HourlyRate:  u.HourlyRate,
		Rating:      u.Rating,
		ReviewCount: u.ReviewCount,
	}
}

// UserStats aggregates a user's task counters with the cached review
// fields. Returned by GET /api/users/:id/stats.
type UserStats struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"reviewCount"`
}
