package service

import (
	"testing"

	"github.com/quillford/inkpress/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	admin := []string{models.RoleAdmin}
	author := []string{models.RoleAuthor}

	tests := []struct {
		name    string
		action  Action
		roles   []string
		isOwner bool
		state   models.LifecycleState
		wantErr error
	}{
		{"admin edits any draft", ActionEdit, admin, false, models.LifecycleDraft, nil},
		{"admin edits any published post", ActionEdit, admin, false, models.LifecyclePublished, nil},
		{"admin deletes any published post", ActionDelete, admin, false, models.LifecyclePublished, nil},
		{"admin publishes", ActionPublish, admin, false, models.LifecycleDraft, nil},
		{"admin unpublishes", ActionUnpublish, admin, false, models.LifecyclePublished, nil},

		{"author edits own draft", ActionEdit, author, true, models.LifecycleDraft, nil},
		{"author deletes own draft", ActionDelete, author, true, models.LifecycleDraft, nil},
		{"author edits own published post", ActionEdit, author, true, models.LifecyclePublished, ErrPublishedLocked},
		{"author deletes own published post", ActionDelete, author, true, models.LifecyclePublished, ErrPublishedLocked},
		{"author edits someone else's draft", ActionEdit, author, false, models.LifecycleDraft, ErrForbidden},
		{"author publishes own draft", ActionPublish, author, true, models.LifecycleDraft, ErrForbidden},
		{"author unpublishes own post", ActionUnpublish, author, true, models.LifecyclePublished, ErrForbidden},

		{"no roles at all", ActionEdit, nil, true, models.LifecycleDraft, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decide(tt.action, tt.roles, tt.isOwner, tt.state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
