package domain

import "time"

// TruthFlag classifies how an overlay's content relates to ground truth.
type TruthFlag string

const (
	TruthCanonical  TruthFlag = "canonical"
	TruthRumor      TruthFlag = "rumor"
	TruthPropaganda TruthFlag = "propaganda"
	TruthDisputed   TruthFlag = "disputed"
)

// Valid reports whether f is a known classification.
func (f TruthFlag) Valid() bool {
	switch f {
	case TruthCanonical, TruthRumor, TruthPropaganda, TruthDisputed:
		return true
	default:
		return false
	}
}

// Overlay is a viewpoint-scoped variant of an entity's article. Scope fields
// (viewpoint, era window, chapter window) are data, not identity: nothing
// stops two overlays from carrying the same scope, so resolution has to
// disambiguate deterministically.
type Overlay struct {
	ID                 string     `json:"id"`
	EntityID           string     `json:"entityId"`
	Title              string     `json:"title"`
	TruthFlag          TruthFlag  `json:"truthFlag"`
	ViewpointID        *string    `json:"viewpointId,omitempty"`
	WorldFrom          *string    `json:"worldFrom,omitempty"`
	WorldTo            *string    `json:"worldTo,omitempty"`
	StoryFromChapterID *string    `json:"storyFromChapterId,omitempty"`
	StoryToChapterID   *string    `json:"storyToChapterId,omitempty"`
	ActiveRevisionID   *string    `json:"activeRevisionId,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	DeletedAt          *time.Time `json:"deletedAt,omitempty"`
}

func (o Overlay) Deleted() bool {
	return o.DeletedAt != nil
}

// MatchesEra implements the overlay era filter: an overlay passes when the
// requested era is the wildcard, the overlay is timeless (no era scope), or
// the era equals one of the window endpoints. This is endpoint equality, not
// range containment; era ordering is out of the overlay filter's hands.
func (o Overlay) MatchesEra(eraID string) bool {
	if eraID == ScopeAll {
		return true
	}
	if o.WorldFrom == nil && o.WorldTo == nil {
		return true
	}
	if o.WorldFrom != nil && *o.WorldFrom == eraID {
		return true
	}
	if o.WorldTo != nil && *o.WorldTo == eraID {
		return true
	}
	return false
}

// MatchesChapter is the chapter analogue of MatchesEra.
func (o Overlay) MatchesChapter(chapterID string) bool {
	if chapterID == ScopeAll {
		return true
	}
	if o.StoryFromChapterID == nil && o.StoryToChapterID == nil {
		return true
	}
	if o.StoryFromChapterID != nil && *o.StoryFromChapterID == chapterID {
		return true
	}
	if o.StoryToChapterID != nil && *o.StoryToChapterID == chapterID {
		return true
	}
	return false
}
