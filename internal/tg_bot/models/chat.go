package models

import "time"

// ChatState is the stored preference of one Telegram chat.
type ChatState struct {
	ChatID    int64     `json:"chatID"`    // Telegram chat ID
	Language  string    `json:"language"`  // Reply language chosen with /az or /ru
	UpdatedAt time.Time `json:"updatedAt"` // Last time the language was changed
}
