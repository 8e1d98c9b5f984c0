package service

import (
	"errors"

	"github.com/quillford/inkpress/internal/models"
)

var (
	// ErrForbidden: wrong role or not the owner.
	ErrForbidden = errors.New("not allowed to perform this action")
	// ErrPublishedLocked: an Author touching their own Published post.
	// Resolving it requires an Admin to unpublish first, so it maps to a
	// conflict rather than a plain denial.
	ErrPublishedLocked = errors.New("published posts can only be changed by an admin")
)

// Action is a post mutation subject to authorization.
type Action int

const (
	ActionEdit Action = iota
	ActionDelete
	ActionPublish
	ActionUnpublish
)

// Decide is the single authorization decision for every post-mutating
// endpoint. Admins may do anything. Authors may edit or delete only their
// own posts and only while those are drafts. Status transitions are
// admin-only.
func Decide(action Action, roles []string, isOwner bool, state models.LifecycleState) error {
	for _, r := range roles {
		if r == models.RoleAdmin {
			return nil
		}
	}

	switch action {
	case ActionPublish, ActionUnpublish:
		return ErrForbidden
	case ActionEdit, ActionDelete:
		if !hasRole(roles, models.RoleAuthor) || !isOwner {
			return ErrForbidden
		}
		if state == models.LifecyclePublished {
			return ErrPublishedLocked
		}
		return nil
	}

	return ErrForbidden
}

func hasRole(roles []string, name string) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}
