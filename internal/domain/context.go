package domain

// ViewMode selects between the canonical article and a viewpoint reading.
type ViewMode string

const (
	ModeCanon     ViewMode = "canon"
	ModeViewpoint ViewMode = "viewpoint"
)

const (
	// ScopeAll is the wildcard era/chapter identifier: every overlay passes
	// the corresponding scope filter.
	ScopeAll = "all"
	// ViewpointCanon short-circuits resolution to the base article even in
	// viewpoint mode.
	ViewpointCanon = "canon"
)

// ViewContext is the full viewing context a reader (or editor) resolves
// against: canon vs. a viewpoint, a world era and a story chapter.
type ViewContext struct {
	Mode        ViewMode `json:"mode"`
	ViewpointID string   `json:"viewpointId"`
	EraID       string   `json:"eraId"`
	ChapterID   string   `json:"chapterId"`
}

// Canonical reports whether the context bypasses overlays entirely.
func (c ViewContext) Canonical() bool {
	return c.Mode == ModeCanon || c.ViewpointID == ViewpointCanon || c.ViewpointID == ""
}

// Resolution is the outcome of resolving a context: which channel won, which
// revision is current for it, and that revision's body. RevisionID is empty
// (and Body blank) for an overlay that has never had a revision approved.
type Resolution struct {
	TargetType TargetKind `json:"targetType"`
	TargetID   string     `json:"targetId"`
	RevisionID string     `json:"revisionId,omitempty"`
	Body       string     `json:"body"`
}
