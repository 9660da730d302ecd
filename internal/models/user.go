package models

import "time"

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// Privileged reports whether the role bypasses ownership and
// one-vote-per-item restrictions. Centralised so call sites never
// compare role strings directly.
func (r UserRole) Privileged() bool {
	return r == RoleAdmin
}

// User represents a participant account. Accounts are created by the
// external identity provider; this service only mutates the reward
// counters and profile fields.
type User struct {
	EnrollmentID     string    `db:"enrollment_id" json:"enrollment_id"`
	Mobile           string    `db:"mobile" json:"mobile"`
	Branch           string    `db:"branch" json:"branch"`
	Role             UserRole  `db:"role" json:"role"`
	KarmaPoints      int       `db:"karma_points" json:"karma_points"`
	XP               int       `db:"xp" json:"xp"`
	Level            int       `db:"level" json:"level"`
	ProfilePic       *string   `db:"profile_pic" json:"profile_pic,omitempty"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Branch   string
	Role     *UserRole
	Page     int
	PageSize int
}

// LeaderboardEntry is a ranked row surfaced by the karma hub.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	EnrollmentID string `json:"enrollment_id"`
	Branch       string `json:"branch"`
	KarmaPoints  int    `json:"karma_points"`
	Level        int    `json:"level"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
