package dto

type GenerateByKnowledgeRequest struct {
	KnowledgePoints  []string `json:"knowledge_points" validate:"required,min=1,dive,required"`
	HistoryQuestions []string `json:"history_questions,omitempty"`
}

type GenerateByKnowledgeResponse struct {
	Question            string   `json:"question"`
	Analysis            string   `json:"analysis"`
	Answer              string   `json:"answer"`
	KnowledgePoints     []string `json:"knowledge_points"`
	FollowUpSuggestions []string `json:"follow_up_suggestions,omitempty"`
}

type KnowledgeStatResponse struct {
	KnowledgeId     int64  `json:"knowledge_id"`
	Name            string `json:"name"`
	UnfamiliarCount int    `json:"unfamiliar_count"`
}

type SessionKnowledgeResponse struct {
	SessionId string                  `json:"session_id"`
	Points    []KnowledgeStatResponse `json:"points"`
}

type UserKnowledgeResponse struct {
	UserId string                  `json:"user_id"`
	Points []KnowledgeStatResponse `json:"points"`
}
