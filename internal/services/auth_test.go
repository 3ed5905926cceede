package services_test

import (
	"testing"
	"time"

	"github.com/lucasbeniti/todo-api/internal/config"
	"github.com/lucasbeniti/todo-api/internal/database"
	"github.com/lucasbeniti/todo-api/internal/models"
	"github.com/lucasbeniti/todo-api/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "test-secret",
		Issuer:          "todo-api",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		BCryptCost:      4,
	}
}

func setupAuthTest(t *testing.T) (*gorm.DB, *services.AuthServiceImpl) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db, services.NewAuthService(testAuthConfig())
}

func TestRegisterAndLogin(t *testing.T) {
	db, authService := setupAuthTest(t)

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", user.Password, "password must be stored hashed")

	loggedIn, err := authService.LoginUser(db, "lucas@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = authService.LoginUser(db, "lucas@example.com", "wrong-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = authService.LoginUser(db, "nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, authService := setupAuthTest(t)

	input := services.RegisterInput{Name: "A", Email: "dup@example.com", Password: "secret-password"}
	_, err := authService.RegisterUser(db, input)
	require.NoError(t, err)

	_, err = authService.RegisterUser(db, input)
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestIssueAndResolveTokens(t *testing.T) {
	db, authService := setupAuthTest(t)

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	pair, err := authService.IssueTokens(db, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	actorID, err := authService.ResolveActor(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actorID)

	var stored models.RefreshToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
}

func TestResolveActorRejectsGarbage(t *testing.T) {
	_, authService := setupAuthTest(t)

	_, err := authService.ResolveActor("not-a-token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestResolveActorRejectsExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenTTL = -time.Minute
	authService := services.NewAuthService(cfg)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	pair, err := authService.IssueTokens(db, user.ID)
	require.NoError(t, err)

	_, err = authService.ResolveActor(pair.AccessToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestResolveActorRejectsWrongSecret(t *testing.T) {
	db, authService := setupAuthTest(t)

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	pair, err := authService.IssueTokens(db, user.ID)
	require.NoError(t, err)

	other := testAuthConfig()
	other.JWTSecret = "different-secret"
	_, err = services.NewAuthService(other).ResolveActor(pair.AccessToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestRevokeRefreshToken(t *testing.T) {
	db, authService := setupAuthTest(t)

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	pair, err := authService.IssueTokens(db, user.ID)
	require.NoError(t, err)

	require.NoError(t, authService.RevokeRefreshToken(db, pair.RefreshToken))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCleanupExpiredTokens(t *testing.T) {
	cfg := testAuthConfig()
	cfg.RefreshTokenTTL = -time.Hour
	authService := services.NewAuthService(cfg)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	user, err := authService.RegisterUser(db, services.RegisterInput{
		Name:     "Lucas",
		Email:    "lucas@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	_, err = authService.IssueTokens(db, user.ID)
	require.NoError(t, err)

	removed, err := authService.CleanupExpiredTokens(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
