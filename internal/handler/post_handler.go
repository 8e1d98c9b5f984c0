package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/quillford/inkpress/internal/media"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadBytes caps the whole multipart body.
const MaxUploadBytes = 5_000_000

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// ListPublished returns a page of published posts for public readers.
// GET /api/v1/posts/list?page=&pageSize=
func (h *PostHandler) ListPublished(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	posts, total, err := h.postService.List(page, pageSize)
	if err != nil {
		logger.Log.Error("Failed to list posts", zap.Error(err))
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": total,
	})
}

// GetBySlug returns a single published post.
// GET /api/v1/posts/slug/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	post, err := h.postService.GetBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// GetByID returns a post for the edit screens, ownership-checked for
// Authors.
// GET /api/v1/posts/:id
func (h *PostHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	post, err := h.postService.GetForEditor(actorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Create creates a draft post from a multipart form, optionally with a
// featured image.
// POST /api/v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	input, ok := h.bindPostForm(c)
	if !ok {
		return
	}

	post, err := h.postService.Create(actorFromContext(c), *input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Update replaces the mutable fields and associations of a post.
// PUT /api/v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	input, ok := h.bindPostForm(c)
	if !ok {
		return
	}

	post, err := h.postService.Update(actorFromContext(c), id, *input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Delete soft-deletes a post.
// DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	if err := h.postService.Delete(actorFromContext(c), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Publish transitions a draft to published.
// POST /api/v1/posts/:id/publish
func (h *PostHandler) Publish(c *gin.Context) {
	h.transition(c, h.postService.Publish)
}

// Unpublish transitions a published post back to draft.
// POST /api/v1/posts/:id/unpublish
func (h *PostHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.postService.Unpublish)
}

func (h *PostHandler) transition(c *gin.Context, op func(service.Actor, uuid.UUID) (*models.Post, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post ID"})
		return
	}

	post, err := op(actorFromContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// bindPostForm parses and validates the multipart form shared by create
// and update. Field problems are reported per-field before persistence is
// touched. Returns ok=false after writing the error response itself.
func (h *PostHandler) bindPostForm(c *gin.Context) (*service.PostInput, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	if err := c.Request.ParseMultipartForm(MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body exceeds upload limit",
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid multipart form",
		})
		return nil, false
	}

	input := &service.PostInput{
		Title:        strings.TrimSpace(c.PostForm("title")),
		Slug:         strings.TrimSpace(c.PostForm("slug")),
		Excerpt:      strings.TrimSpace(c.PostForm("excerpt")),
		Content:      c.PostForm("content"),
		ImageAltText: strings.TrimSpace(c.PostForm("image_alt_text")),
	}
	format := c.PostForm("content_format")

	fields := map[string]string{}
	if input.Title == "" {
		fields["title"] = "title is required"
	}
	if input.Slug == "" {
		fields["slug"] = "slug is required"
	}
	if strings.TrimSpace(input.Content) == "" {
		fields["content"] = "content is required"
	}
	if !models.ValidContentFormat(format) {
		fields["content_format"] = "content format must be markdown or html"
	}

	var err error
	if input.TagIDs, err = parseIDList(c.PostFormArray("tag_ids")); err != nil {
		fields["tag_ids"] = "tag ids must be valid UUIDs"
	}
	if input.CategoryIDs, err = parseIDList(c.PostFormArray("category_ids")); err != nil {
		fields["category_ids"] = "category ids must be valid UUIDs"
	}

	file, header, err := c.Request.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// No featured image attached
	case err != nil:
		fields["image"] = "invalid image upload"
	default:
		contentType := header.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] {
			file.Close()
			fields["image"] = "image must be JPEG, PNG or WebP"
		} else {
			input.Image = &media.Upload{
				Reader:      file,
				Filename:    header.Filename,
				ContentType: contentType,
			}
		}
	}

	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return nil, false
	}

	input.ContentFormat = models.ContentFormat(format)
	return input, true
}

func parseIDList(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
