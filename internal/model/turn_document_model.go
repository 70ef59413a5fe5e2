package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type TurnDocument struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string          `gorm:"type:varchar(64);not null;index:idx_turn_session_turn,unique"`
	TurnIndex int             `gorm:"not null;index:idx_turn_session_turn,unique"`
	Question  string          `gorm:"type:text;not null"`
	Answer    string          `gorm:"type:text;not null"`
	Embedding *pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 dims, null when embedding failed
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (TurnDocument) TableName() string {
	return "turn_documents"
}
