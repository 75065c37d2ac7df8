package gateway

import (
	"context"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

const referenceTTLSeconds = 60

// ReferenceGateway answers viewpoint/era/chapter existence lookups. Reference
// data is small and hot (every overlay create and scope change hits it), so
// positive and negative answers are both memoized in memcached.
type ReferenceGateway struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewReferenceGateway(db *gorm.DB, mc *memcache.Client) *ReferenceGateway {
	return &ReferenceGateway{db: db, mc: mc}
}

func (g *ReferenceGateway) ViewpointExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return g.exists(ctx, &models.Viewpoint{}, "viewpoint", workspaceID, id)
}

func (g *ReferenceGateway) EraExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return g.exists(ctx, &models.Era{}, "era", workspaceID, id)
}

func (g *ReferenceGateway) ChapterExists(ctx context.Context, workspaceID, id string) (bool, error) {
	return g.exists(ctx, &models.Chapter{}, "chapter", workspaceID, id)
}

func (g *ReferenceGateway) exists(ctx context.Context, model any, kind, workspaceID, id string) (bool, error) {
	key := "ref:" + kind + ":" + workspaceID + ":" + id
	if item, err := g.mc.Get(key); err == nil {
		return string(item.Value) == "1", nil
	}

	var count int64
	err := g.db.WithContext(ctx).
		Model(model).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	value := []byte("0")
	if count > 0 {
		value = []byte("1")
	}
	// Cache errors are ignored: memcached being down just means slower lookups.
	g.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: referenceTTLSeconds})

	return count > 0, nil
}
