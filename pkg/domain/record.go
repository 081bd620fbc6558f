package domain

import "time"

// AnswerRecord is one accepted raw answer as stored by the answer log.
type AnswerRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Role values for Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a prompt sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
