package entity

import "time"

// ContentPart is one piece of a multimodal message. Text parts carry
// Text; image parts carry ImageURL as a data URI or http URL.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

const (
	ContentPartTypeText  = "text"
	ContentPartTypeImage = "image_url"
)

type Message struct {
	Id        int64
	SessionId string
	Role      string
	Content   string
	Parts     []ContentPart
	CreatedAt time.Time
	UpdatedAt *time.Time
}
