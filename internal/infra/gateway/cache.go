package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

const resolutionTTL = 30 * time.Second

// ResolutionCacheGateway memoizes resolution outcomes in redis. Invalidation
// bumps a per-entity version counter instead of enumerating keys, so stale
// entries for any view context die immediately and expire on their own.
type ResolutionCacheGateway struct {
	rdb *redis.Client
}

func NewResolutionCacheGateway(redisClient *redis.Client) *ResolutionCacheGateway {
	return &ResolutionCacheGateway{rdb: redisClient}
}

func (g *ResolutionCacheGateway) Get(ctx context.Context, entityID string, vc domain.ViewContext) (*domain.Resolution, bool) {
	raw, err := g.rdb.Get(ctx, g.key(ctx, entityID, vc)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		g.logError(ctx, "get", err)
		return nil, false
	}

	var res domain.Resolution
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		g.logError(ctx, "decode", err)
		return nil, false
	}
	return &res, true
}

func (g *ResolutionCacheGateway) Set(ctx context.Context, entityID string, vc domain.ViewContext, res domain.Resolution) {
	raw, err := json.Marshal(res)
	if err != nil {
		g.logError(ctx, "encode", err)
		return
	}
	if err := g.rdb.Set(ctx, g.key(ctx, entityID, vc), raw, resolutionTTL).Err(); err != nil {
		g.logError(ctx, "set", err)
	}
}

func (g *ResolutionCacheGateway) Invalidate(ctx context.Context, entityID string) {
	if err := g.rdb.Incr(ctx, versionKey(entityID)).Err(); err != nil {
		g.logError(ctx, "invalidate", err)
	}
}

func (g *ResolutionCacheGateway) key(ctx context.Context, entityID string, vc domain.ViewContext) string {
	version, err := g.rdb.Get(ctx, versionKey(entityID)).Int64()
	if err != nil && err != redis.Nil {
		g.logError(ctx, "version", err)
	}
	return fmt.Sprintf("resolve:%s:%d:%s:%s:%s:%s",
		entityID, version, vc.Mode, vc.ViewpointID, vc.EraID, vc.ChapterID)
}

func versionKey(entityID string) string {
	return "resolve:ver:" + entityID
}

func (g *ResolutionCacheGateway) logError(ctx context.Context, op string, err error) {
	slog.ErrorContext(
		ctx, "Resolution cache error",
		slog.String("op", op),
		slog.String("error", err.Error()),
		slog.String("module", "cache"),
	)
}
