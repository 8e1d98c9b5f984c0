package repository

import (
	"errors"

	"github.com/quillford/inkpress/internal/models"

	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// EnsureDefaults seeds the fixed Admin/Author role rows if missing.
func (r *RoleRepository) EnsureDefaults() error {
	for _, name := range []string{models.RoleAdmin, models.RoleAuthor} {
		role := models.Role{Name: name}
		if err := r.db.FirstOrCreate(&role, models.Role{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *RoleRepository) GetByName(name string) (*models.Role, error) {
	var role models.Role
	err := r.db.Where("name = ?", name).First(&role).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &role, nil
}
