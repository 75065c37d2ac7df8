package models

import "time"

type Viewpoint struct {
	ID          string  `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string  `json:"workspaceId" gorm:"type:text;index"`
	Name        string  `json:"name" gorm:"type:text;not null"`
	EntityID    *string `json:"entityId" gorm:"type:text"`
}

type Era struct {
	ID          string `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string `json:"workspaceId" gorm:"type:text;index"`
	Name        string `json:"name" gorm:"type:text;not null"`
}

type Chapter struct {
	ID          string `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string `json:"workspaceId" gorm:"type:text;index"`
	Name        string `json:"name" gorm:"type:text;not null"`
}

// Membership backs the workspace-role gateway. Role storage itself belongs
// to the surrounding application; the engine only reads it.
type Membership struct {
	WorkspaceID string `json:"workspaceId" gorm:"primaryKey;type:text"`
	UserID      string `json:"userId" gorm:"primaryKey;type:text"`
	Role        string `json:"role" gorm:"type:text;not null"`
}

type AuditLog struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WorkspaceID string    `json:"workspaceId" gorm:"type:text;index"`
	ActorID     string    `json:"actorId" gorm:"type:text;index"`
	Action      string    `json:"action" gorm:"type:text;index"`
	TargetType  string    `json:"targetType" gorm:"type:text"`
	TargetID    string    `json:"targetId" gorm:"type:text;index"`
	Metadata    string    `json:"metadata" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
