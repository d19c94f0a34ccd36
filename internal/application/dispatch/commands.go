package dispatch

import (
	"context"
	"strings"

	"github.com/doeshing/puremath/internal/domain"
)

const (
	cmdStart    = "/start"
	cmdHelp     = "/help"
	cmdAbout    = "/about"
	cmdExamples = "/examples"
)

// commandName extracts "/cmd" from "/Cmd@BotName args".
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		text = text[:i]
	}
	if at := strings.IndexByte(text, '@'); at >= 0 {
		text = text[:at]
	}
	return strings.ToLower(text)
}

// commandReply builds the canned response for a command message.
func (s *Service) commandReply(msg *domain.InboundMessage) domain.OutgoingMessage {
	reply := domain.OutgoingMessage{
		ChatID:    msg.ChatID,
		ParseMode: domain.ParseModeMarkdownV2,
	}
	switch commandName(msg.Text) {
	case cmdStart:
		reply.Text = msgWelcome
		reply.Keyboard = exampleKeyboard()
	case cmdHelp:
		reply.Text = msgHelp
	case cmdAbout:
		reply.Text = aboutText(s.Settings.Version, s.Settings.ModelName, s.Settings.RateLimit)
	case cmdExamples:
		reply.Text = msgExamples
	default:
		reply.Text = msgUnknownCommand
	}
	return reply
}

func (s *Service) handleCommand(ctx context.Context, msg *domain.InboundMessage) {
	reply := s.commandReply(msg)
	if err := s.Messenger.SendMessage(ctx, reply); err != nil {
		s.Logger.Error("command reply failed", err, map[string]interface{}{
			"chat_id": msg.ChatID,
			"command": commandName(msg.Text),
		})
	}
}
