package service_test

import (
	"testing"

	"github.com/quillford/inkpress/internal/config"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/internal/testutil"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBootstrap(t *testing.T) (*repository.UserRepository, *repository.RoleRepository) {
	logger.Init(false)
	testDB := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { testDB.Teardown(t) })
	testutil.CleanDatabase(t, testDB.DB)

	return repository.NewUserRepository(testDB.DB), repository.NewRoleRepository(testDB.DB)
}

func bootstrapConfig() *config.Config {
	return &config.Config{
		BootstrapAdminEmail:       "root@example.com",
		BootstrapAdminPassword:    "RootPass123",
		BootstrapAdminDisplayName: "Root",
	}
}

func TestBootstrap_SeedsRolesAndAdmin(t *testing.T) {
	userRepo, roleRepo := setupBootstrap(t)

	require.NoError(t, service.Bootstrap(userRepo, roleRepo, bootstrapConfig()))

	adminRole, err := roleRepo.GetByName(models.RoleAdmin)
	require.NoError(t, err)
	assert.NotNil(t, adminRole)

	authorRole, err := roleRepo.GetByName(models.RoleAuthor)
	require.NoError(t, err)
	assert.NotNil(t, authorRole)

	admin, err := userRepo.GetUserByEmail("root@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.HasRole(models.RoleAdmin))
}

func TestBootstrap_Idempotent(t *testing.T) {
	userRepo, roleRepo := setupBootstrap(t)
	cfg := bootstrapConfig()

	require.NoError(t, service.Bootstrap(userRepo, roleRepo, cfg))
	require.NoError(t, service.Bootstrap(userRepo, roleRepo, cfg), "A second run must not fail or duplicate")
}

func TestBootstrap_SkipsWhenAdminExists(t *testing.T) {
	userRepo, roleRepo := setupBootstrap(t)
	require.NoError(t, roleRepo.EnsureDefaults())

	existing, err := testutil.CreateTestUser("existing@example.com", "Existing", "ExistingPass1", models.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, userRepo.CreateUser(existing))

	require.NoError(t, service.Bootstrap(userRepo, roleRepo, bootstrapConfig()))

	seeded, err := userRepo.GetUserByEmail("root@example.com")
	require.NoError(t, err)
	assert.Nil(t, seeded, "No bootstrap admin when one already exists")
}

func TestBootstrap_SkipFlag(t *testing.T) {
	userRepo, roleRepo := setupBootstrap(t)
	cfg := bootstrapConfig()
	cfg.BootstrapSkip = true

	require.NoError(t, service.Bootstrap(userRepo, roleRepo, cfg))

	seeded, err := userRepo.GetUserByEmail("root@example.com")
	require.NoError(t, err)
	assert.Nil(t, seeded)

	// Roles are still ensured even when admin seeding is skipped
	adminRole, err := roleRepo.GetByName(models.RoleAdmin)
	require.NoError(t, err)
	assert.NotNil(t, adminRole)
}
