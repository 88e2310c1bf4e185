package bot

import (
	"unicode/utf16"

	tele "gopkg.in/telebot.v3"

	"github.com/NotCool09/myowobot/internal/command"
)

// requestFrom builds a facade request from a message. Text mentions of users
// without a username become <@id> mentions, and a reply to another user's
// message names that user when the command takes one.
func requestFrom(m *tele.Message) command.Request {
	text := expandMentions(m.Text, m.Entities)
	if r := m.ReplyTo; r != nil && r.Sender != nil && !r.Sender.IsBot && r.Sender.ID != m.Sender.ID {
		text = command.WithTarget(text, r.Sender.ID)
	}
	req := command.Request{UserID: m.Sender.ID, Text: text}
	if m.Chat != nil {
		req.ChatID = m.Chat.ID
	}
	return req
}

// expandMentions replaces text_mention entities with <@id>. Entity offsets
// count UTF-16 code units.
func expandMentions(text string, entities []tele.MessageEntity) string {
	var units []uint16
	for i := len(entities) - 1; i >= 0; i-- {
		e := entities[i]
		if e.Type != tele.EntityTMention || e.User == nil {
			continue
		}
		if units == nil {
			units = utf16.Encode([]rune(text))
		}
		end := e.Offset + e.Length
		if e.Offset < 0 || e.Length <= 0 || end > len(units) {
			continue
		}
		mention := utf16.Encode([]rune(command.Mention(e.User.ID)))
		next := make([]uint16, 0, len(units)-e.Length+len(mention))
		next = append(next, units[:e.Offset]...)
		next = append(next, mention...)
		units = append(next, units[end:]...)
	}
	if units == nil {
		return text
	}
	return string(utf16.Decode(units))
}
