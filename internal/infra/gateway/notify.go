package gateway

import (
	"context"
	"log/slog"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/service"
)

// NotifyGateway delivers watcher events over the workspace pub/sub channel.
// Delivery is best-effort: a dropped notification never fails the mutation
// that produced it.
type NotifyGateway struct {
	signal *service.SignalService
}

func NewNotifyGateway(signal *service.SignalService) *NotifyGateway {
	return &NotifyGateway{signal: signal}
}

func (g *NotifyGateway) NotifyWatchers(ctx context.Context, event domain.Event) {
	if err := g.signal.Publish(ctx, event); err != nil {
		slog.ErrorContext(
			ctx, "Failed to publish watcher event",
			slog.String("error", err.Error()),
			slog.String("type", event.Type),
			slog.String("module", "notify"),
		)
	}
}
