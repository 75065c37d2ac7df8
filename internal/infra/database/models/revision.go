package models

import (
	"time"
)

// Revision rows are append-only: nothing but Status, ApprovedBy and
// ApprovedAt ever changes after insert, and those at most once. Target
// discriminates which of the two nullable owner keys is set; the
// repositories keep the pair consistent.
type Revision struct {
	ID               string     `json:"id" gorm:"primaryKey;type:text"`
	Target           string     `json:"target" gorm:"type:text;not null"`
	ArticleID        *string    `json:"articleId" gorm:"type:text;index"`
	OverlayID        *string    `json:"overlayId" gorm:"type:text;index"`
	Body             string     `json:"body" gorm:"type:text"`
	ChangeSummary    string     `json:"changeSummary" gorm:"type:text"`
	Author           string     `json:"author" gorm:"type:text;index"`
	Status           string     `json:"status" gorm:"type:text;not null;index"`
	ApprovedBy       *string    `json:"approvedBy" gorm:"type:text"`
	ApprovedAt       *time.Time `json:"approvedAt" gorm:"type:timestamp with time zone"`
	ParentRevisionID *string    `json:"parentRevisionId" gorm:"type:text;index"`
	CDate            time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type ReviewRequest struct {
	ID          string     `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string     `json:"workspaceId" gorm:"type:text;index"`
	RevisionID  string     `json:"revisionId" gorm:"type:text;index"`
	Revision    Revision   `json:"-" gorm:"foreignKey:RevisionID;references:ID;constraint:OnDelete:CASCADE;"`
	Status      string     `json:"status" gorm:"type:text;not null;index"`
	RequestedBy string     `json:"requestedBy" gorm:"type:text"`
	CDate       time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	ClosedAt    *time.Time `json:"closedAt" gorm:"type:timestamp with time zone"`
}

type ReviewComment struct {
	ID        string        `json:"id" gorm:"primaryKey;type:text"`
	RequestID string        `json:"requestId" gorm:"type:text;index"`
	Request   ReviewRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE;"`
	Author    string        `json:"author" gorm:"type:text"`
	Body      string        `json:"body" gorm:"type:text"`
	CDate     time.Time     `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
