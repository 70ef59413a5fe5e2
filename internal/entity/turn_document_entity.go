package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnDocument is one completed question/answer exchange, stored as a
// retrieval unit. TurnIndex is dense and 1-based within a session.
type TurnDocument struct {
	Id        uuid.UUID
	SessionId string
	TurnIndex int
	Question  string
	Answer    string
	Embedding []float32
	CreatedAt time.Time
}
