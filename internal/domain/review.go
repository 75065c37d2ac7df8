package domain

import "time"

// ReviewStatus mirrors the moderation outcome of the underlying revision.
type ReviewStatus string

const (
	ReviewOpen     ReviewStatus = "open"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewRequest links one revision to the moderation queue. At most one open
// request exists per revision; newer revisions of the same target supersede
// rather than cancel older requests, which stay in history once closed.
type ReviewRequest struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspaceId"`
	RevisionID  string          `json:"revisionId"`
	Status      ReviewStatus    `json:"status"`
	RequestedBy string          `json:"requestedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	ClosedAt    *time.Time      `json:"closedAt,omitempty"`
	Comments    []ReviewComment `json:"comments,omitempty"`
}

// ReviewComment is a discussion entry on a review request. Comments never
// touch revision content.
type ReviewComment struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
