package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
)

func newProfileFixture(t *testing.T) (*ProfileService, *memoryPrincipalRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryPrincipalRepo()
	svc := NewProfileService(testConfig(), repo, persistence.NewRedisWithClient(client), zap.NewNop())
	return svc, repo, mr
}

func seedUser(t *testing.T, repo *memoryPrincipalRepo, email, mobile, password string) *domain.Principal {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	principal := &domain.Principal{
		Role:         domain.RoleUser,
		FullName:     "A",
		Email:        email,
		Mobile:       &mobile,
		PasswordHash: hash,
	}
	require.NoError(t, repo.Create(context.Background(), principal))
	return principal
}

func TestGetPublicByIDServesFromCache(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	first, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", first.Email)
	callsAfterFirst := repo.getByIDCalls

	second, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, callsAfterFirst, repo.getByIDCalls)
}

func TestGetPublicByIDCacheExpires(t *testing.T) {
	svc, repo, mr := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	_, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	callsAfterFirst := repo.getByIDCalls

	mr.FastForward(2 * time.Minute)

	_, err = svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.Greater(t, repo.getByIDCalls, callsAfterFirst)
}

func TestGetPublicByIDUnknown(t *testing.T) {
	svc, _, _ := newProfileFixture(t)

	_, err := svc.GetPublicByID(context.Background(), domain.RoleUser, "missing")
	requireStatus(t, err, http.StatusNotFound)
}

func TestGetPublicByIDWrongRole(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	_, err := svc.GetPublicByID(context.Background(), domain.RoleAdmin, principal.ID)
	requireStatus(t, err, http.StatusNotFound)
}

func TestUpdateDetailsInvalidatesCache(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	_, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateDetails(context.Background(), principal, UpdateDetailsInput{
		FullName: "A Updated",
		Email:    "a2@x.com",
		Mobile:   "111",
	})
	require.NoError(t, err)
	assert.Equal(t, "A Updated", updated.FullName)

	fresh, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2@x.com", fresh.Email)
}

func TestUpdateDetailsConflictingHandle(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	seedUser(t, repo, "a@x.com", "111", "p1")
	other := seedUser(t, repo, "b@x.com", "222", "p2")

	_, err := svc.UpdateDetails(context.Background(), other, UpdateDetailsInput{
		FullName: "B",
		Email:    "a@x.com",
		Mobile:   "222",
	})
	requireStatus(t, err, http.StatusConflict)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	require.NoError(t, svc.ChangePassword(context.Background(), principal.ID, "p1", "p2"))

	stored, err := repo.GetByID(context.Background(), principal.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "p2"))
	assert.Error(t, auth.ComparePassword(stored.PasswordHash, "p1"))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	err := svc.ChangePassword(context.Background(), principal.ID, "wrong", "p2")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestListReturnsPublicProjections(t *testing.T) {
	svc, repo, _ := newProfileFixture(t)
	seedUser(t, repo, "a@x.com", "111", "p1")
	seedUser(t, repo, "b@x.com", "222", "p2")

	users, err := svc.List(context.Background(), domain.RoleUser)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admins, err := svc.List(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestProfileServiceWorksWithoutCache(t *testing.T) {
	repo := newMemoryPrincipalRepo()
	svc := NewProfileService(testConfig(), repo, nil, zap.NewNop())
	principal := seedUser(t, repo, "a@x.com", "111", "p1")

	public, err := svc.GetPublicByID(context.Background(), domain.RoleUser, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, public.ID)
}
