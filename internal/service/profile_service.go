package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// UpdateDetailsInput carries account detail changes.
type UpdateDetailsInput struct {
	FullName string
	Email    string
	Mobile   string
}

// ProfileService serves public principal projections and account
// maintenance. Projections are cached in Redis; the cache degrades to the
// repository when unavailable.
type ProfileService struct {
	principals repository.PrincipalRepository
	cache      *persistence.Redis
	cacheTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

// NewProfileService builds the service.
func NewProfileService(cfg config.Config, principals repository.PrincipalRepository, cache *persistence.Redis, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		principals: principals,
		cache:      cache,
		cacheTTL:   cfg.Redis.ProfileCacheTTL(),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// GetPublicByID returns the public projection for a principal of the given
// role.
func (s *ProfileService) GetPublicByID(ctx context.Context, role domain.Role, id string) (*domain.PublicPrincipal, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		if cached.Role != role {
			return nil, apperrors.NewNotFound(role.Label())
		}
		return cached, nil
	}

	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound(role.Label())
		}
		return nil, err
	}
	if principal.Role != role {
		return nil, apperrors.NewNotFound(role.Label())
	}

	public := principal.Public()
	s.cacheSet(ctx, public)
	return &public, nil
}

// UpdateDetails mutates the principal's account fields and returns the new
// public projection. The cached projection is invalidated.
func (s *ProfileService) UpdateDetails(ctx context.Context, principal *domain.Principal, in UpdateDetailsInput) (*domain.PublicPrincipal, error) {
	updated := *principal
	updated.FullName = in.FullName
	updated.Email = in.Email
	if in.Mobile != "" {
		updated.Mobile = &in.Mobile
	}

	if err := s.principals.UpdateDetails(ctx, &updated); err != nil {
		if err == repository.ErrDuplicateHandle {
			return nil, apperrors.NewConflict("email or mobile is already in use")
		}
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound(principal.Role.Label())
		}
		return nil, err
	}

	s.cacheInvalidate(ctx, principal.ID)
	public := updated.Public()
	return &public, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *ProfileService) ChangePassword(ctx context.Context, principalID, currentPassword, newPassword string) error {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("principal")
		}
		return err
	}

	if err := auth.ComparePassword(principal.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("old password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return s.principals.UpdatePassword(ctx, principalID, hash)
}

// List returns public projections for every principal of the given role.
func (s *ProfileService) List(ctx context.Context, role domain.Role) ([]domain.PublicPrincipal, error) {
	principals, err := s.principals.List(ctx, role)
	if err != nil {
		return nil, err
	}
	publics := make([]domain.PublicPrincipal, 0, len(principals))
	for i := range principals {
		publics = append(publics, principals[i].Public())
	}
	return publics, nil
}

func cacheKey(id string) string {
	return "principal:" + id
}

func (s *ProfileService) cacheGet(ctx context.Context, id string) *domain.PublicPrincipal {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("profile cache read failed", zap.Error(err))
		}
		return nil
	}
	var public domain.PublicPrincipal
	if err := json.Unmarshal(raw, &public); err != nil {
		s.logger.Debug("profile cache entry corrupt", zap.Error(err))
		return nil
	}
	return &public
}

func (s *ProfileService) cacheSet(ctx context.Context, public domain.PublicPrincipal) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(public)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, cacheKey(public.ID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("profile cache write failed", zap.Error(err))
	}
}

func (s *ProfileService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, cacheKey(id)).Err(); err != nil {
		s.logger.Debug("profile cache invalidate failed", zap.Error(err))
	}
}
