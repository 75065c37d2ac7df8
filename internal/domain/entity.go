package domain

import "time"

// Entity is a wiki subject: a character, place, event or concept. Every
// entity owns exactly one Article (the canonical channel) and any number of
// Overlays. Tags carry both freeform category markers and the
// protection-level marker interpreted by the policy package.
type Entity struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	Aliases     []string   `json:"aliases,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the entity is soft-deleted. Soft-deleted entities
// stay addressable by id for audit and restore but are excluded from
// resolution and listing.
func (e Entity) Deleted() bool {
	return e.DeletedAt != nil
}

// Article is the canonical channel for one entity. BaseRevisionID points at
// the currently-published revision; nil only before the first approval,
// which in practice never outlasts entity creation because entities are
// created together with an initial approved revision.
type Article struct {
	ID             string  `json:"id"`
	EntityID       string  `json:"entityId"`
	BaseRevisionID *string `json:"baseRevisionId,omitempty"`
}
