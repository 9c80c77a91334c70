package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role      string    `json:"role"`             // user or assistant
	Content   string    `json:"content"`          // Message text
	Source    string    `json:"source,omitempty"` // rule, system, ai or error for assistant messages
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the body of POST /api/chat/message.
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// ChatResponse is the reply to a ChatRequest.
type ChatResponse struct {
	Reply       string `json:"reply"`
	Source      string `json:"source"`
	NeedsTicket bool   `json:"needsTicket"`
}
