package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillford/inkpress/internal/media"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrAlreadyPublished = errors.New("post is already published")
	ErrNotPublished     = errors.New("post is not published")
	ErrMediaUpload      = errors.New("media upload failed")
)

// PostStore is the persistence surface the lifecycle service needs.
// *repository.PostRepository satisfies it.
type PostStore interface {
	ListPublished(page, pageSize int) ([]models.Post, int64, error)
	GetBySlug(slug string) (*models.Post, error)
	GetByID(id uuid.UUID) (*models.Post, error)
	SlugTaken(slug string, excludeID uuid.UUID) (bool, error)
	CreatePost(post *models.Post) error
	UpdatePost(post *models.Post, tags []models.Tag, categories []models.Category) error
	SavePost(post *models.Post) error
	SoftDelete(id uuid.UUID) error
	FindTagsByIDs(ids []uuid.UUID) ([]models.Tag, error)
	FindCategoriesByIDs(ids []uuid.UUID) ([]models.Category, error)
}

// Actor is the authenticated caller, taken from token claims.
type Actor struct {
	UserID uuid.UUID
	Roles  []string
}

func (a Actor) IsAdmin() bool {
	return hasRole(a.Roles, models.RoleAdmin)
}

// PostInput carries the validated mutable fields of a post. Image is nil
// when no new featured image was attached.
type PostInput struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	ContentFormat models.ContentFormat
	TagIDs        []uuid.UUID
	CategoryIDs   []uuid.UUID
	Image         *media.Upload
	ImageAltText  string
}

type PostService struct {
	posts PostStore
	media media.Host
	ctx   context.Context
}

func NewPostService(posts PostStore, mediaHost media.Host) *PostService {
	return &PostService{
		posts: posts,
		media: mediaHost,
		ctx:   context.Background(),
	}
}

func (s *PostService) List(page, pageSize int) ([]models.Post, int64, error) {
	return s.posts.ListPublished(page, pageSize)
}

// GetBySlug resolves a published post for public readers.
func (s *PostService) GetBySlug(slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// GetForEditor loads a post for the edit screens. Authors only see their
// own posts; deleted posts are gone for everyone.
func (s *PostService) GetForEditor(actor Actor, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !actor.IsAdmin() && post.AuthorID != actor.UserID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) Create(actor Actor, input PostInput) (*models.Post, error) {
	taken, err := s.posts.SlugTaken(input.Slug, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	tags, err := s.posts.FindTagsByIDs(input.TagIDs)
	if err != nil {
		return nil, err
	}
	categories, err := s.posts.FindCategoriesByIDs(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:            uuid.New(),
		Title:         input.Title,
		Slug:          input.Slug,
		Excerpt:       input.Excerpt,
		Content:       input.Content,
		ContentFormat: input.ContentFormat,
		Status:        models.StatusDraft,
		AuthorID:      actor.UserID,
		Tags:          tags,
		Categories:    categories,
	}

	err = s.commitWithMedia(input.Image, func(asset *media.Asset) error {
		if asset != nil {
			post.ImageURL = asset.URL
			post.ImageAssetID = asset.AssetID
			post.ImageAltText = input.ImageAltText
		}
		return s.posts.CreatePost(post)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Post created",
		zap.String("post_id", post.ID.String()),
		zap.String("slug", post.Slug),
		zap.String("author_id", actor.UserID.String()),
	)

	return post, nil
}

func (s *PostService) Update(actor Actor, id uuid.UUID, input PostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if err := Decide(ActionEdit, actor.Roles, post.AuthorID == actor.UserID, post.Lifecycle()); err != nil {
		return nil, err
	}

	taken, err := s.posts.SlugTaken(input.Slug, post.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	tags, err := s.posts.FindTagsByIDs(input.TagIDs)
	if err != nil {
		return nil, err
	}
	categories, err := s.posts.FindCategoriesByIDs(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Slug = input.Slug
	post.Excerpt = input.Excerpt
	post.Content = input.Content
	post.ContentFormat = input.ContentFormat
	post.ImageAltText = input.ImageAltText

	oldAssetID := post.ImageAssetID
	replaced := false

	err = s.commitWithMedia(input.Image, func(asset *media.Asset) error {
		if asset != nil {
			post.ImageURL = asset.URL
			post.ImageAssetID = asset.AssetID
			replaced = true
		}
		return s.posts.UpdatePost(post, tags, categories)
	})
	if err != nil {
		return nil, err
	}

	post.Tags = tags
	post.Categories = categories

	// The superseded image goes away only after the database write has
	// committed. Failure here is swallowed; an orphaned asset is acceptable.
	if replaced && oldAssetID != "" {
		if delErr := s.media.Delete(s.ctx, oldAssetID); delErr != nil {
			logger.Log.Warn("Failed to delete superseded media asset",
				zap.String("post_id", post.ID.String()),
				zap.String("asset_id", oldAssetID),
				zap.Error(delErr),
			)
		}
	}

	logger.Log.Info("Post updated",
		zap.String("post_id", post.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	return post, nil
}

func (s *PostService) Delete(actor Actor, id uuid.UUID) error {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if err := Decide(ActionDelete, actor.Roles, post.AuthorID == actor.UserID, post.Lifecycle()); err != nil {
		return err
	}

	if err := s.posts.SoftDelete(post.ID); err != nil {
		return err
	}

	logger.Log.Info("Post soft-deleted",
		zap.String("post_id", post.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	return nil
}

func (s *PostService) Publish(actor Actor, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if err := Decide(ActionPublish, actor.Roles, post.AuthorID == actor.UserID, post.Lifecycle()); err != nil {
		return nil, err
	}

	if post.Status == models.StatusPublished {
		return nil, ErrAlreadyPublished
	}

	now := time.Now()
	post.Status = models.StatusPublished
	post.PublishedAt = &now

	if err := s.posts.SavePost(post); err != nil {
		return nil, err
	}

	logger.Log.Info("Post published",
		zap.String("post_id", post.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	return post, nil
}

func (s *PostService) Unpublish(actor Actor, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if err := Decide(ActionUnpublish, actor.Roles, post.AuthorID == actor.UserID, post.Lifecycle()); err != nil {
		return nil, err
	}

	if post.Status != models.StatusPublished {
		return nil, ErrNotPublished
	}

	// PublishedAt is retained for history.
	post.Status = models.StatusDraft

	if err := s.posts.SavePost(post); err != nil {
		return nil, err
	}

	logger.Log.Info("Post unpublished",
		zap.String("post_id", post.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	return post, nil
}

// commitWithMedia is the single upload-then-persist step shared by create
// and update. The upload happens first; if persistence then fails, the
// fresh asset is deleted best-effort and the persistence error is surfaced.
func (s *PostService) commitWithMedia(image *media.Upload, persist func(asset *media.Asset) error) error {
	if image == nil {
		return persist(nil)
	}

	asset, err := s.media.Upload(s.ctx, *image)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}

	if err := persist(asset); err != nil {
		if delErr := s.media.Delete(s.ctx, asset.AssetID); delErr != nil {
			logger.Log.Error("Failed to delete orphaned media asset",
				zap.String("asset_id", asset.AssetID),
				zap.Error(delErr),
			)
		}
		return err
	}

	return nil
}
