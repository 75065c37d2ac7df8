package models

import (
	"time"
)

type Overlay struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:text"`
	EntityID           string     `json:"entityId" gorm:"type:text;index"`
	Entity             Entity     `json:"-" gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	Title              string     `json:"title" gorm:"type:text;not null"`
	TruthFlag          string     `json:"truthFlag" gorm:"type:text;not null"`
	ViewpointID        *string    `json:"viewpointId" gorm:"type:text;index"`
	WorldFrom          *string    `json:"worldFrom" gorm:"type:text"`
	WorldTo            *string    `json:"worldTo" gorm:"type:text"`
	StoryFromChapterID *string    `json:"storyFromChapterId" gorm:"type:text"`
	StoryToChapterID   *string    `json:"storyToChapterId" gorm:"type:text"`
	ActiveRevisionID   *string    `json:"activeRevisionId" gorm:"type:text"`
	CDate              time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate              time.Time  `json:"mdate" gorm:"type:timestamp with time zone;not null;autoUpdateTime"`
	DeletedAt          *time.Time `json:"deletedAt" gorm:"type:timestamp with time zone;index"`
}
