package domain

import "time"

// RevisionStatus is the moderation state of a revision. The only legal
// transitions are draft -> approved and draft -> rejected; both targets are
// terminal.
type RevisionStatus string

const (
	RevisionDraft    RevisionStatus = "draft"
	RevisionApproved RevisionStatus = "approved"
	RevisionRejected RevisionStatus = "rejected"
)

func (s RevisionStatus) Valid() bool {
	switch s {
	case RevisionDraft, RevisionApproved, RevisionRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s RevisionStatus) Terminal() bool {
	return s == RevisionApproved || s == RevisionRejected
}

// CanTransition reports whether s -> next is a legal moderation transition.
func (s RevisionStatus) CanTransition(next RevisionStatus) bool {
	return s == RevisionDraft && next.Terminal()
}

// TargetKind discriminates which channel a revision belongs to.
type TargetKind string

const (
	TargetBase    TargetKind = "base"
	TargetOverlay TargetKind = "overlay"
)

// RevisionTarget identifies the owner of a revision: either an article (base
// channel) or an overlay. Constructing it through BaseTarget/OverlayTarget
// keeps the owner id and the discriminator consistent by construction.
type RevisionTarget struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func BaseTarget(articleID string) RevisionTarget {
	return RevisionTarget{Kind: TargetBase, ID: articleID}
}

func OverlayTarget(overlayID string) RevisionTarget {
	return RevisionTarget{Kind: TargetOverlay, ID: overlayID}
}

// Revision is an immutable snapshot of body text. Once created, only its
// status may change, and that at most once. ParentRevisionID forms a history
// chain that is not necessarily linear: restoring an old revision creates a
// new child of the old one, not of the current head.
type Revision struct {
	ID               string         `json:"id"`
	Target           RevisionTarget `json:"target"`
	Body             string         `json:"body"`
	ChangeSummary    string         `json:"changeSummary"`
	Author           string         `json:"author"`
	CreatedAt        time.Time      `json:"createdAt"`
	Status           RevisionStatus `json:"status"`
	ApprovedBy       *string        `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time     `json:"approvedAt,omitempty"`
	ParentRevisionID *string        `json:"parentRevisionId,omitempty"`
}
