package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meme represents a published content item.
//
// Upvotes, Downvotes, Views and CommentCount are redundant aggregate counters
// maintained strictly through atomic column updates (gorm.Expr), never by
// recounting vote or comment rows.
type Meme struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `gorm:"not null" json:"image_url"`

	CreatorID string `gorm:"not null;index" json:"creator_id"`
	Creator   User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Upvotes      int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes    int `gorm:"not null;default:0" json:"downvotes"`
	Views        int `gorm:"not null;default:0" json:"views"`
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`

	Tags     []MemeTag `gorm:"foreignKey:MemeID" json:"tags,omitempty"`
	Comments []Comment `gorm:"foreignKey:MemeID" json:"comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meme) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Score is always derived; it is never persisted so it cannot drift from the
// counters.
func (m *Meme) Score() int {
	return m.Upvotes - m.Downvotes
}

// TagNames flattens the tag relation for JSON responses.
func (m *Meme) TagNames() []string {
	names := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// Comment is an append-only comment on a meme. Comments are never edited or
// deleted.
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	MemeID string `gorm:"not null;index" json:"meme_id"`
	Meme   Meme   `gorm:"foreignKey:MemeID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Text string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// VoteDirection is the direction of a cast vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Vote is the per-(user, meme) ledger entry. The unique index is what makes
// "at most one directional vote per user per meme" hold even under concurrent
// duplicate requests: the second insert fails at the database.
type Vote struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string        `gorm:"not null;uniqueIndex:idx_votes_user_meme" json:"user_id"`
	MemeID    string        `gorm:"not null;uniqueIndex:idx_votes_user_meme;index" json:"meme_id"`
	Direction VoteDirection `gorm:"not null" json:"direction"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// MemeTag links a meme to a lowercase free-form tag. Trending tags are a
// GROUP BY over this table.
type MemeTag struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	MemeID string `gorm:"not null;uniqueIndex:idx_meme_tags_meme_tag" json:"-"`
	Tag    string `gorm:"not null;uniqueIndex:idx_meme_tags_meme_tag;index" json:"tag"`
}

func (mt *MemeTag) BeforeCreate(tx *gorm.DB) error {
	if mt.ID == "" {
		mt.ID = uuid.New().String()
	}
	return nil
}
