package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

// LifecycleState is the full three-state lifecycle of a post. Draft and
// Published map to the stored status; Deleted is derived from the soft-delete
// stamp, so a deleted post can never also report Published.
type LifecycleState string

const (
	LifecycleDraft     LifecycleState = "draft"
	LifecyclePublished LifecycleState = "published"
	LifecycleDeleted   LifecycleState = "deleted"
)

type Post struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string        `gorm:"type:varchar(255);not null" json:"title"`
	Slug          string        `gorm:"type:varchar(255);not null;index" json:"slug"`
	Excerpt       string        `gorm:"type:text" json:"excerpt"`
	Content       string        `gorm:"type:text;not null" json:"content"`
	ContentFormat ContentFormat `gorm:"type:varchar(20);not null;default:'markdown'" json:"content_format"`
	Status        PostStatus    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`

	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// Featured image lives in the external media host; AssetID is the
	// provider handle needed to delete it later.
	ImageURL     string `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	ImageAssetID string `gorm:"type:varchar(255)" json:"-"`
	ImageAltText string `gorm:"type:varchar(255)" json:"image_alt_text,omitempty"`

	Tags       []Tag      `gorm:"many2many:post_tags" json:"tags"`
	Categories []Category `gorm:"many2many:post_categories" json:"categories"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Lifecycle collapses status and the soft-delete stamp into one state.
func (p *Post) Lifecycle() LifecycleState {
	if p.DeletedAt.Valid {
		return LifecycleDeleted
	}
	if p.Status == StatusPublished {
		return LifecyclePublished
	}
	return LifecycleDraft
}

// ValidContentFormat reports whether f is one of the accepted formats.
func ValidContentFormat(f string) bool {
	switch ContentFormat(f) {
	case FormatMarkdown, FormatHTML:
		return true
	}
	return false
}
