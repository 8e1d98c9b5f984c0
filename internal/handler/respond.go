package handler

import (
	"errors"
	"net/http"

	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinel errors onto the HTTP taxonomy:
// policy denials are 403, missing or soft-deleted entities are 404, state
// conflicts (slug, redundant transitions, published lock) are 409.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrAlreadyPublished),
		errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrPublishedLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMediaUpload):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// actorFromContext builds the service actor from the validated claims set
// by AuthMiddleware.
func actorFromContext(c *gin.Context) service.Actor {
	claims := c.MustGet("claims").(*utils.Claims)
	return service.Actor{
		UserID: claims.UserID,
		Roles:  claims.Roles,
	}
}
