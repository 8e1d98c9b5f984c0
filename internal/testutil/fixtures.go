package testutil

import (
	"time"

	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/utils"

	"github.com/google/uuid"
)

// SeedRoles inserts the fixed Admin/Author role rows.
func SeedRoles() []models.Role {
	return []models.Role{
		{Name: models.RoleAdmin},
		{Name: models.RoleAuthor},
	}
}

// CreateTestUser builds a user with a hashed password and a single role.
// The role row must already exist in the database.
func CreateTestUser(email, displayName, password, roleName string) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		Roles:        []models.Role{{Name: roleName}},
	}, nil
}

// CreateDraftPost builds an unsaved draft post for the given author.
func CreateDraftPost(authorID uuid.UUID, title, slug string) *models.Post {
	return &models.Post{
		ID:            uuid.New(),
		Title:         title,
		Slug:          slug,
		Excerpt:       "excerpt for " + title,
		Content:       "content for " + title,
		ContentFormat: models.FormatMarkdown,
		Status:        models.StatusDraft,
		AuthorID:      authorID,
	}
}

// CreatePublishedPost builds an unsaved published post with the given
// publish time.
func CreatePublishedPost(authorID uuid.UUID, title, slug string, publishedAt time.Time) *models.Post {
	post := CreateDraftPost(authorID, title, slug)
	post.Status = models.StatusPublished
	post.PublishedAt = &publishedAt
	return post
}

// CreateTestTag builds an unsaved tag.
func CreateTestTag(name string) *models.Tag {
	return &models.Tag{ID: uuid.New(), Name: name}
}

// CreateTestCategory builds an unsaved category.
func CreateTestCategory(name string) *models.Category {
	return &models.Category{ID: uuid.New(), Name: name}
}
