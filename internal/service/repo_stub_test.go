package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// memoryPrincipalRepo is an in-memory PrincipalRepository with the same
// conditional-rotation semantics as the Postgres implementation.
type memoryPrincipalRepo struct {
	mu           sync.Mutex
	byID         map[string]*domain.Principal
	getByIDCalls int
}

func newMemoryPrincipalRepo() *memoryPrincipalRepo {
	return &memoryPrincipalRepo{byID: make(map[string]*domain.Principal)}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	c := *p
	if p.Mobile != nil {
		mobile := *p.Mobile
		c.Mobile = &mobile
	}
	if p.RefreshToken != nil {
		token := *p.RefreshToken
		c.RefreshToken = &token
	}
	return &c
}

func (r *memoryPrincipalRepo) Create(_ context.Context, p *domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Role != p.Role {
			continue
		}
		if existing.Email == p.Email {
			return repository.ErrDuplicateHandle
		}
		if existing.Mobile != nil && p.Mobile != nil && *existing.Mobile == *p.Mobile {
			return repository.ErrDuplicateHandle
		}
	}
	p.ID = uuid.NewString()
	r.byID[p.ID] = clonePrincipal(p)
	return nil
}

func (r *memoryPrincipalRepo) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByIDCalls++
	p, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return clonePrincipal(p), nil
}

func (r *memoryPrincipalRepo) GetByHandle(_ context.Context, role domain.Role, email, mobile string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Role != role {
			continue
		}
		if email != "" && p.Email == email {
			return clonePrincipal(p), nil
		}
		if mobile != "" && p.Mobile != nil && *p.Mobile == mobile {
			return clonePrincipal(p), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryPrincipalRepo) UpdateDetails(_ context.Context, p *domain.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, other := range r.byID {
		if other.ID == p.ID || other.Role != p.Role {
			continue
		}
		if other.Email == p.Email {
			return repository.ErrDuplicateHandle
		}
		if other.Mobile != nil && p.Mobile != nil && *other.Mobile == *p.Mobile {
			return repository.ErrDuplicateHandle
		}
	}
	stored.FullName = p.FullName
	stored.Email = p.Email
	if p.Mobile != nil {
		mobile := *p.Mobile
		stored.Mobile = &mobile
	}
	return nil
}

func (r *memoryPrincipalRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.PasswordHash = passwordHash
	return nil
}

func (r *memoryPrincipalRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.RefreshToken = &token
	return nil
}

func (r *memoryPrincipalRepo) RotateRefreshToken(_ context.Context, id, current, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return repository.ErrRefreshTokenMismatch
	}
	if p.RefreshToken == nil || *p.RefreshToken != current {
		return repository.ErrRefreshTokenMismatch
	}
	p.RefreshToken = &next
	return nil
}

func (r *memoryPrincipalRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.RefreshToken = nil
	return nil
}

func (r *memoryPrincipalRepo) List(_ context.Context, role domain.Role) ([]domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var principals []domain.Principal
	for _, p := range r.byID {
		if p.Role == role {
			principals = append(principals, *clonePrincipal(p))
		}
	}
	return principals, nil
}

func (r *memoryPrincipalRepo) storedRefreshToken(id string) *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.RefreshToken == nil {
		return nil
	}
	token := *p.RefreshToken
	return &token
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:     "test-access-secret",
			RefreshTokenSecret:    "test-refresh-secret",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLDays:   1,
			BcryptCost:            4,
		},
		Redis: config.RedisConfig{
			ProfileCacheTTLSeconds: 60,
		},
	}
}
