// Package tenant maps an authenticated principal to the effective tenant
// whose ledger it acts on. Staff resolve to their owning account.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/stock-ledger/internal/models"
	"gorm.io/gorm"
)

// ErrUnknownPrincipal means the principal does not map to any tenant.
var ErrUnknownPrincipal = errors.New("unknown_principal")

// Resolver returns the effective tenant id for a principal.
type Resolver interface {
	EffectiveTenant(ctx context.Context, principalID uint) (uint, error)
}

// DBResolver resolves principals from the users table.
type DBResolver struct {
	db *gorm.DB
}

func NewDBResolver(db *gorm.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) EffectiveTenant(ctx context.Context, principalID uint) (uint, error) {
	if principalID == 0 {
		return 0, ErrUnknownPrincipal
	}
	var u models.User
	err := r.db.WithContext(ctx).Select("id", "owner_id").First(&u, principalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownPrincipal
	}
	if err != nil {
		return 0, fmt.Errorf("resolve tenant for user %d: %w", principalID, err)
	}
	return u.TenantID(), nil
}

// Self treats every principal as its own tenant. Used when no user table
// backs the deployment (memory driver).
type Self struct{}

func (Self) EffectiveTenant(_ context.Context, principalID uint) (uint, error) {
	if principalID == 0 {
		return 0, ErrUnknownPrincipal
	}
	return principalID, nil
}
