package domain

import (
	"time"
	"unicode/utf8"
)

// QuestionLogRecord captures one answered question.
type QuestionLogRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ChatID         int64     `json:"chat_id"`
	User           UserInfo  `json:"user"`
	Question       string    `json:"question"`
	Response       string    `json:"response"`
	ResponseLength int       `json:"response_length"`
}

// UserInfo identifies the sender of a question.
type UserInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// NewQuestionLogRecord builds a record, truncating long responses to
// ResponsePreviewLimit runes followed by "...".
func NewQuestionLogRecord(at time.Time, chatID int64, user UserInfo, question, response string) QuestionLogRecord {
	length := utf8.RuneCountInString(response)
	preview := response
	if length > ResponsePreviewLimit {
		preview = string([]rune(response)[:ResponsePreviewLimit]) + "..."
	}
	return QuestionLogRecord{
		Timestamp:      at.UTC(),
		ChatID:         chatID,
		User:           user,
		Question:       question,
		Response:       preview,
		ResponseLength: length,
	}
}

// CacheEntry stores a cached solution.
type CacheEntry struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) > ttl
}

// KeyedCacheEntry pairs an entry with its content hash for listings.
type KeyedCacheEntry struct {
	Key string
	CacheEntry
}
