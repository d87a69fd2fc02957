package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// invalidTokenMessage is the single client-facing message for every refresh
// verification failure. Expired, malformed and reused tokens must be
// indistinguishable to a caller; the precise reason is only logged.
const invalidTokenMessage = "invalid token"

// TokenPair bundles a freshly issued access/refresh token pairing.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RegisterInput carries registration fields. Mobile applies to the user
// role only.
type RegisterInput struct {
	FullName string
	Email    string
	Mobile   string
	Password string
}

// LoginInput carries credentials; at least one handle must be set.
type LoginInput struct {
	Email    string
	Mobile   string
	Password string
}

// SessionService owns the session lifecycle for both principal roles:
// credential verification, token issuance, rotate-on-use refresh and
// revocation. One instance serves users and admins; operations take the
// role as a parameter.
type SessionService struct {
	principals repository.PrincipalRepository
	tokens     *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(cfg config.Config, principals repository.PrincipalRepository, dispatcher events.Dispatcher, logger *zap.Logger) *SessionService {
	return &SessionService{
		principals: principals,
		tokens: auth.NewTokenManager(
			cfg.Auth.AccessTokenSecret,
			cfg.Auth.RefreshTokenSecret,
			cfg.Auth.AccessTokenTTL(),
			cfg.Auth.RefreshTokenTTL(),
		),
		bcryptCost: cfg.Auth.BcryptCost,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register creates a new principal after checking handle uniqueness. No
// tokens are issued; the caller logs in separately.
func (s *SessionService) Register(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Principal, error) {
	if _, err := s.principals.GetByHandle(ctx, role, in.Email, in.Mobile); err == nil {
		return nil, apperrors.NewConflict("email or mobile is already in use")
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	principal := &domain.Principal{
		Role:         role,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if in.Mobile != "" {
		principal.Mobile = &in.Mobile
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if err == repository.ErrDuplicateHandle {
			return nil, apperrors.NewConflict("email or mobile is already in use")
		}
		return nil, err
	}

	s.publish(ctx, events.EventPrincipalRegistered, principal)
	return principal, nil
}

// Login verifies credentials and starts a new session. The stored refresh
// token is overwritten, which revokes any previously issued one: a principal
// holds at most one live session.
func (s *SessionService) Login(ctx context.Context, role domain.Role, in LoginInput) (*domain.Principal, *TokenPair, error) {
	principal, err := s.principals.GetByHandle(ctx, role, in.Email, in.Mobile)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound(role.Label())
		}
		return nil, nil, err
	}

	if err := auth.ComparePassword(principal.PasswordHash, in.Password); err != nil {
		return nil, nil, apperrors.NewAuthenticationError("invalid " + role.Label() + " credentials")
	}

	pair, err := s.issuePair(principal)
	if err != nil {
		return nil, nil, err
	}
	if err := s.principals.SetRefreshToken(ctx, principal.ID, pair.RefreshToken); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.EventSessionStarted, principal)
	return principal, pair, nil
}

// Refresh rotates a refresh token. A presented token is accepted only when
// it verifies cryptographically AND its literal value still equals the one
// stored on the principal record; the replacement happens through a
// conditional update so concurrent refreshes cannot both succeed.
func (s *SessionService) Refresh(ctx context.Context, role domain.Role, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperrors.NewAuthenticationError("unauthorised request")
	}

	claims, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		s.logger.Warn("refresh token rejected", zap.Error(err))
		return nil, apperrors.NewAuthenticationError(invalidTokenMessage)
	}
	if claims.Role != role {
		s.logger.Warn("refresh token role mismatch",
			zap.String("principal_id", claims.PrincipalID),
			zap.String("claim_role", string(claims.Role)),
			zap.String("route_role", string(role)))
		return nil, apperrors.NewAuthenticationError(invalidTokenMessage)
	}

	principal, err := s.principals.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewAuthenticationError(invalidTokenMessage)
		}
		return nil, err
	}

	if principal.RefreshToken == nil || *principal.RefreshToken != presented {
		s.logger.Warn("refresh token reuse detected",
			zap.String("principal_id", principal.ID),
			zap.String("role", string(principal.Role)))
		return nil, apperrors.NewAuthenticationError(invalidTokenMessage)
	}

	pair, err := s.issuePair(principal)
	if err != nil {
		return nil, err
	}

	err = s.principals.RotateRefreshToken(ctx, principal.ID, presented, pair.RefreshToken)
	if err != nil {
		if err == repository.ErrRefreshTokenMismatch {
			// Lost a race against a concurrent refresh of the same token.
			s.logger.Warn("refresh token rotated concurrently",
				zap.String("principal_id", principal.ID))
			return nil, apperrors.NewAuthenticationError(invalidTokenMessage)
		}
		return nil, err
	}

	s.publish(ctx, events.EventSessionRefreshed, principal)
	return pair, nil
}

// Logout clears the stored refresh token, making every refresh token issued
// to the principal permanently unusable.
func (s *SessionService) Logout(ctx context.Context, principal *domain.Principal) error {
	if err := s.principals.ClearRefreshToken(ctx, principal.ID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound(principal.Role.Label())
		}
		return err
	}

	s.publish(ctx, events.EventSessionEnded, principal)
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *SessionService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *SessionService) issuePair(principal *domain.Principal) (*TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(principal.ID, principal.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(principal.ID, principal.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, principal *domain.Principal) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.NewEvent(eventType, principal.ID, principal.Role))
}
