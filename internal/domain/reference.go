package domain

// Viewpoint is a named perspective ("The Empire", "Player Knowledge"),
// optionally anchored to the entity whose eyes it represents. Pure reference
// data consumed by overlays and by the resolution context.
type Viewpoint struct {
	ID          string  `json:"id"`
	WorkspaceID string  `json:"workspaceId"`
	Name        string  `json:"name"`
	EntityID    *string `json:"entityId,omitempty"`
}

// Era is a world-calendar period referenced by overlay scope windows.
type Era struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
}

// Chapter is a narrative unit referenced by overlay scope windows.
type Chapter struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
}
