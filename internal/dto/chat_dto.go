package dto

import "time"

// SubmitTurnRequest arrives as multipart form data: text fields plus
// optional image and audio file parts handled by the controller.
// user_id is only needed when no session_id targets an existing
// session.
type SubmitTurnRequest struct {
	SessionId string `json:"session_id" form:"session_id" validate:"omitempty,max=64"`
	UserId    string `json:"user_id" form:"user_id" validate:"omitempty,max=64"`
	Message   string `json:"message" form:"message"`
}

type SubmitTurnResponse struct {
	SessionId         string   `json:"session_id"`
	Response          string   `json:"response"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
	Saved             bool     `json:"saved"`
	SaveError         string   `json:"save_error,omitempty"`
}

type SessionSummaryResponse struct {
	SessionId    string     `json:"session_id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	Preview      string     `json:"preview"`
	MessageCount int        `json:"message_count"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	LastActiveAt time.Time  `json:"last_active_at"`
}

type SessionListResponse struct {
	Sessions []SessionSummaryResponse `json:"sessions"`
}

type MessageResponse struct {
	Id        int64     `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionHistoryResponse struct {
	SessionId string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

type CloseSessionResponse struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
}
