package telegram

import (
	"context"
	"strings"

	"github.com/sandevgo/pulsebot/pkg/conv"
	"github.com/sandevgo/pulsebot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

// recipient lets a plain chat ID string satisfy tele.Recipient.
type recipient string

func (r recipient) Recipient() string { return string(r) }

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// SendText converts Markdown to Telegram HTML and sends it in chunks if
// needed. When Telegram rejects the HTML, the chunk is resent as plain text
// so the user still gets the content.
func (s *sender) SendText(ctx context.Context, chatID string, text string) error {
	logger := log.FromCtx(ctx)
	to := recipient(chatID)

	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(text)))
	if html == "" {
		return nil
	}

	for i, chunk := range splitHTML(html, maxTelegramMsgLen) {
		if _, err := s.bot.Send(to, chunk, tele.ModeHTML); err != nil {
			logger.Warn().Err(err).Int("chunk", i).Msg("html send rejected, retrying as plain text")
			if _, err := s.bot.Send(to, conv.HTMLToPlainText(chunk)); err != nil {
				logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
				return err
			}
		}
	}
	return nil
}

func (s *sender) SendPhoto(ctx context.Context, chatID string, url, caption string) error {
	photo := &tele.Photo{
		File:    tele.FromURL(url),
		Caption: caption,
	}
	_, err := s.bot.Send(recipient(chatID), photo)
	return err
}

// SendSuggestions attaches a one-time reply keyboard, one label per row, so
// the user can answer with a tap.
func (s *sender) SendSuggestions(ctx context.Context, chatID string, body string, labels []string) error {
	markup := &tele.ReplyMarkup{
		OneTimeKeyboard: true,
		ResizeKeyboard:  true,
	}

	rows := make([]tele.Row, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, markup.Row(markup.Text(label)))
	}
	markup.Reply(rows...)

	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(body)))
	_, err := s.bot.Send(recipient(chatID), html, tele.ModeHTML, markup)
	return err
}

func (s *sender) NotifyTyping(ctx context.Context, chatID string) {
	// Best effort, a missed chat action is invisible anyway.
	_ = s.bot.Notify(recipient(chatID), tele.Typing)
}

// splitHTML splits text into chunks respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitHTML(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) in the second half of the chunk
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
