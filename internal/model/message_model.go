package model

import (
	"time"

	"gorm.io/datatypes"
)

type Message struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	SessionId string         `gorm:"type:varchar(64);not null;index"`
	Role      string         `gorm:"type:varchar(20);not null"`
	Content   string         `gorm:"type:text;not null"`
	Parts     datatypes.JSON // multimodal content parts, null for plain text
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Message) TableName() string {
	return "messages"
}
