package model

import "time"

type KnowledgePoint struct {
	Id          int64     `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (KnowledgePoint) TableName() string {
	return "knowledge_points"
}

type SessionKnowledge struct {
	SessionId          string    `gorm:"type:varchar(64);primaryKey"`
	KnowledgeId        int64     `gorm:"primaryKey"`
	UnfamiliarCount    int       `gorm:"default:0"`
	FirstEncounteredAt time.Time `gorm:"autoCreateTime"`
	LastEncounteredAt  time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (SessionKnowledge) TableName() string {
	return "session_knowledge"
}

type UserKnowledge struct {
	UserId               string    `gorm:"type:varchar(64);primaryKey"`
	KnowledgeId          int64     `gorm:"primaryKey"`
	TotalUnfamiliarCount int       `gorm:"default:0"`
	FirstEncounteredAt   time.Time `gorm:"autoCreateTime"`
	LastEncounteredAt    time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (UserKnowledge) TableName() string {
	return "user_knowledge"
}
