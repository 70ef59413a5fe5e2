package entity

import "time"

type KnowledgePoint struct {
	Id          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type SessionKnowledge struct {
	SessionId          string
	KnowledgeId        int64
	UnfamiliarCount    int
	FirstEncounteredAt time.Time
	LastEncounteredAt  time.Time
}

type UserKnowledge struct {
	UserId               string
	KnowledgeId          int64
	TotalUnfamiliarCount int
	FirstEncounteredAt   time.Time
	LastEncounteredAt    time.Time
}

// GeneratedProblem is the output of practice generation from weak
// knowledge points.
type GeneratedProblem struct {
	Question        string
	Analysis        string
	Answer          string
	KnowledgePoints []string
}
