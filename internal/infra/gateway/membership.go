package gateway

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

// MembershipGateway resolves a user's workspace role from the membership
// table. Roles change rarely, so lookups sit behind a short in-process cache.
type MembershipGateway struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewMembershipGateway(db *gorm.DB) *MembershipGateway {
	return &MembershipGateway{
		db:    db,
		cache: cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (g *MembershipGateway) Has(ctx context.Context, userID, workspaceID string, min domain.Role) (bool, error) {
	role, err := g.roleOf(ctx, userID, workspaceID)
	if err != nil {
		return false, err
	}
	return role.Meets(min), nil
}

func (g *MembershipGateway) roleOf(ctx context.Context, userID, workspaceID string) (domain.Role, error) {
	key := workspaceID + "/" + userID
	if cached, found := g.cache.Get(key); found {
		return cached.(domain.Role), nil
	}

	var row models.Membership
	err := g.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		g.cache.Set(key, domain.RoleNone, cache.DefaultExpiration)
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, err
	}

	role := domain.ParseRole(row.Role)
	g.cache.Set(key, role, cache.DefaultExpiration)
	return role, nil
}
