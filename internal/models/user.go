package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is a permanent achievement tag on a user. Badges are granted by the
// badge evaluator and never revoked.
type Badge string

const (
	BadgeFirstUpload     Badge = "first_upload"
	BadgeViralPost       Badge = "viral_post"
	BadgeCommentKing     Badge = "comment_king"
	BadgeProlificCreator Badge = "prolific_creator"
	BadgeWeeklyWinner    Badge = "weekly_winner"
)

// AllBadges is the closed set of badges the evaluator can grant.
var AllBadges = []Badge{
	BadgeFirstUpload,
	BadgeViralPost,
	BadgeCommentKing,
	BadgeProlificCreator,
	BadgeWeeklyWinner,
}

// IsValid reports whether b is one of the known badge tags.
func (b Badge) IsValid() bool {
	for _, known := range AllBadges {
		if b == known {
			return true
		}
	}
	return false
}

// BadgeList is stored as a JSON-encoded text column so it behaves the same on
// Postgres and the sqlite test database.
type BadgeList []Badge

// User represents a MemeHub account with unified auth (native password or
// Google OAuth).
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// Native auth fields. PasswordHash is nil for OAuth-only accounts.
	PasswordHash *string `gorm:"type:text" json:"-"`

	// OAuth provider ID (nullable - users can have native accounts)
	GoogleID *string `gorm:"uniqueIndex" json:"-"`

	// Profile data
	ProfilePicture string    `json:"profile_picture"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Badges         BadgeList `gorm:"type:text;serializer:json" json:"badges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID so the model works on databases without a
// server-side uuid default.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Badges == nil {
		u.Badges = BadgeList{}
	}
	return nil
}

// HasBadge reports whether the user already holds the given badge.
func (u *User) HasBadge(b Badge) bool {
	for _, held := range u.Badges {
		if held == b {
			return true
		}
	}
	return false
}

// PublicUser is the profile shape returned to other users: credentials and
// vote history stay private.
type PublicUser struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture"`
	Bio            string    `json:"bio"`
	Badges         BadgeList `json:"badges"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public strips private fields for profile responses.
func (u *User) Public() PublicUser {
	badges := u.Badges
	if badges == nil {
		badges = BadgeList{}
	}
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Badges:         badges,
		CreatedAt:      u.CreatedAt,
	}
}
