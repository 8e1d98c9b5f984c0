package repository

import (
	"errors"

	"github.com/quillford/inkpress/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListPublished returns a page of published posts, newest publish time first.
// Posts without a publish time sort last. Soft-deleted posts never appear;
// GORM scopes them out of every query here.
func (r *PostRepository) ListPublished(page, pageSize int) ([]models.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int64
	if err := r.db.Model(&models.Post{}).
		Where("status = ?", models.StatusPublished).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := r.db.
		Preload("Author").
		Preload("Tags").
		Preload("Categories").
		Where("status = ?", models.StatusPublished).
		Order("published_at DESC NULLS LAST").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error

	return posts, total, err
}

// GetBySlug resolves a published post for public consumption.
func (r *PostRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.
		Preload("Author").
		Preload("Tags").
		Preload("Categories").
		Where("slug = ? AND status = ?", slug, models.StatusPublished).
		First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *PostRepository) GetByID(id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.
		Preload("Author").
		Preload("Tags").
		Preload("Categories").
		Where("id = ?", id).
		First(&post).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

// SlugTaken checks slug uniqueness among non-deleted posts. excludeID skips
// the post's own row during update; pass uuid.Nil on create.
func (r *PostRepository) SlugTaken(slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CreatePost inserts the post together with its attached tag/category links.
func (r *PostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

// UpdatePost saves the mutable post fields and wholesale replaces the
// tag/category associations.
func (r *PostRepository) UpdatePost(post *models.Post, tags []models.Tag, categories []models.Category) error {
	if err := r.db.Omit("Author", "Tags", "Categories").Save(post).Error; err != nil {
		return err
	}
	if err := r.db.Model(post).Association("Tags").Replace(tags); err != nil {
		return err
	}
	return r.db.Model(post).Association("Categories").Replace(categories)
}

// SavePost persists field changes only (status transitions, image swaps).
func (r *PostRepository) SavePost(post *models.Post) error {
	return r.db.Omit("Author", "Tags", "Categories").Save(post).Error
}

// SoftDelete marks the post deleted; the row stays in storage but is
// excluded from all subsequent reads.
func (r *PostRepository) SoftDelete(id uuid.UUID) error {
	return r.db.Delete(&models.Post{}, "id = ?", id).Error
}

func (r *PostRepository) FindTagsByIDs(ids []uuid.UUID) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&tags).Error
	return tags, err
}

func (r *PostRepository) FindCategoriesByIDs(ids []uuid.UUID) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(ids))
	if len(ids) == 0 {
		return categories, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&categories).Error
	return categories, err
}
