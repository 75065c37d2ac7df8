package models

import (
	"time"
)

type Entity struct {
	ID          string     `json:"id" gorm:"primaryKey;type:text"`
	WorkspaceID string     `json:"workspaceId" gorm:"type:text;uniqueIndex:idx_entity_workspace_title_live,where:deleted_at IS NULL"`
	Title       string     `json:"title" gorm:"type:text;not null"`
	// TitleKey is the lowercased title used for case-insensitive uniqueness.
	// The partial unique index covers live rows only, so a soft-deleted
	// entity frees its title for reuse.
	TitleKey  string     `json:"-" gorm:"type:text;uniqueIndex:idx_entity_workspace_title_live,where:deleted_at IS NULL"`
	Type      string     `json:"type" gorm:"type:text"`
	Aliases   []string   `json:"aliases" gorm:"serializer:json;type:text"`
	Tags      []string   `json:"tags" gorm:"serializer:json;type:text"`
	CDate     time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	DeletedAt *time.Time `json:"deletedAt" gorm:"type:timestamp with time zone;index"`
}

type Article struct {
	ID             string  `json:"id" gorm:"primaryKey;type:text"`
	EntityID       string  `json:"entityId" gorm:"type:text;uniqueIndex"`
	Entity         Entity  `json:"-" gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	BaseRevisionID *string `json:"baseRevisionId" gorm:"type:text"`
}
