package domain

import "time"

// AuditEntry records one mutating operation for compliance and debugging.
// Audit recording is fire-and-forget: losing an entry is less bad than
// losing a user's edit.
type AuditEntry struct {
	WorkspaceID string            `json:"workspaceId"`
	ActorID     string            `json:"actorId"`
	Action      string            `json:"action"`
	TargetType  string            `json:"targetType"`
	TargetID    string            `json:"targetId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	At          time.Time         `json:"at"`
}

// Event is a watcher notification fanned out to subscribers of an entity.
type Event struct {
	WorkspaceID string    `json:"workspaceId"`
	TargetType  string    `json:"targetType"`
	TargetID    string    `json:"targetId"`
	EntityID    string    `json:"entityId,omitempty"`
	Type        string    `json:"type"`
	Payload     any       `json:"payload,omitempty"`
	At          time.Time `json:"at"`
}
