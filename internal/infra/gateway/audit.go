package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database/models"
)

// AuditGateway persists audit entries outside the caller's transaction.
// Failures are logged and dropped: an unrecorded audit entry must never fail
// the user operation that produced it.
type AuditGateway struct {
	db *gorm.DB
}

func NewAuditGateway(db *gorm.DB) *AuditGateway {
	return &AuditGateway{db: db}
}

func (g *AuditGateway) Record(ctx context.Context, entry domain.AuditEntry) {
	metadata := entry.Metadata
	// Correlate the audit row with the request trace when one exists.
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		if metadata == nil {
			metadata = map[string]string{}
		} else {
			copied := make(map[string]string, len(metadata)+1)
			for k, v := range metadata {
				copied[k] = v
			}
			metadata = copied
		}
		metadata["traceId"] = sc.TraceID().String()
	}

	row := models.AuditLog{
		WorkspaceID: entry.WorkspaceID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Metadata:    fingerprintMetadata(metadata),
		CDate:       entry.At,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		slog.ErrorContext(
			ctx, "Failed to record audit entry",
			slog.String("error", err.Error()),
			slog.String("action", entry.Action),
			slog.String("module", "audit"),
		)
	}
}

// fingerprintMetadata serializes the metadata map, replacing any "body" value
// with its xxh3 digest so the audit table holds a stable content fingerprint
// instead of full article text.
func fingerprintMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return "{}"
	}

	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if k == "body" {
			out["bodyHash"] = fmt.Sprintf("%016x", xxh3.HashString(v))
			continue
		}
		out[k] = v
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
