package telegram

import "github.com/doeshing/puremath/internal/domain"

type apiUpdate struct {
	UpdateID int64       `json:"update_id"`
	Message  *apiMessage `json:"message,omitempty"`
}

type apiMessage struct {
	MessageID int64    `json:"message_id"`
	Chat      *apiChat `json:"chat,omitempty"`
	From      *User    `json:"from,omitempty"`
	Text      string   `json:"text,omitempty"`
}

type apiChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// User is the account behind a bot token or a message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type envelope[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

type sendMessageRequest struct {
	ChatID           int64        `json:"chat_id"`
	Text             string       `json:"text"`
	ParseMode        string       `json:"parse_mode,omitempty"`
	ReplyToMessageID int64        `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
	Selective       bool               `json:"selective,omitempty"`
}

type keyboardButton struct {
	Text string `json:"text"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

func toDomainUpdate(u apiUpdate) domain.Update {
	out := domain.Update{ID: u.UpdateID}
	if u.Message == nil {
		return out
	}
	msg := &domain.InboundMessage{
		MessageID: u.Message.MessageID,
		Text:      u.Message.Text,
	}
	if u.Message.Chat != nil {
		msg.ChatID = u.Message.Chat.ID
	}
	if u.Message.From != nil {
		msg.From = domain.UserInfo{
			ID:        u.Message.From.ID,
			Username:  u.Message.From.Username,
			FirstName: u.Message.From.FirstName,
			LastName:  u.Message.From.LastName,
		}
	}
	out.Message = msg
	return out
}

func toReplyMarkup(kb *domain.ReplyKeyboard) *replyMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]keyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]keyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, keyboardButton{Text: label})
		}
		rows = append(rows, buttons)
	}
	return &replyMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  kb.Resize,
		OneTimeKeyboard: kb.OneTime,
		Selective:       kb.Selective,
	}
}
