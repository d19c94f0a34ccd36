package domain

import "strings"

// Update is one record returned by a long poll.
type Update struct {
	ID      int64
	Message *InboundMessage
}

// InboundMessage is the part of an update the dispatcher acts on.
type InboundMessage struct {
	MessageID int64
	ChatID    int64
	From      UserInfo
	Text      string
}

// Valid reports whether the message carries a sender and non-empty text.
func (m *InboundMessage) Valid() bool {
	return m != nil && m.From.ID != 0 && strings.TrimSpace(m.Text) != ""
}

// IsCommand reports whether the text starts with the command prefix.
func (m *InboundMessage) IsCommand() bool {
	return m != nil && strings.HasPrefix(strings.TrimSpace(m.Text), CommandPrefix)
}

// CommandPrefix marks bot commands.
const CommandPrefix = "/"

// ParseMode selects how Telegram interprets outgoing text.
type ParseMode string

const (
	ParseModePlain      ParseMode = ""
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
)

// OutgoingMessage is a text reply.
type OutgoingMessage struct {
	ChatID    int64
	Text      string
	ReplyTo   int64
	ParseMode ParseMode
	Keyboard  *ReplyKeyboard
}

// ReplyKeyboard is a custom keyboard shown under the input field.
type ReplyKeyboard struct {
	Rows      [][]string
	Resize    bool
	OneTime   bool
	Selective bool
}

// ChatActionTyping shows the "typing…" indicator.
const ChatActionTyping = "typing"

// Artifact is a rendered output ready for upload.
type Artifact struct {
	Name     string
	MIMEType string
	Data     []byte
}
