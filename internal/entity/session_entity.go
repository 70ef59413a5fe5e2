package entity

import "time"

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

type TutorSession struct {
	Id           string
	UserId       string
	Title        string
	Status       string
	StartTime    time.Time
	EndTime      *time.Time
	LastActiveAt time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

func (s *TutorSession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
