package model

import (
	"time"

	"gorm.io/gorm"
)

type TutorSession struct {
	Id           string         `gorm:"type:varchar(64);primaryKey"`
	UserId       string         `gorm:"type:varchar(64);not null;index"`
	Title        string         `gorm:"type:text"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active'"`
	StartTime    time.Time      `gorm:"not null"`
	EndTime      *time.Time
	LastActiveAt time.Time
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (TutorSession) TableName() string {
	return "tutor_sessions"
}
