package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"gopkg.in/telebot.v4"
)

// maxTelegramItems caps the product list so a message stays under Telegram's size limit.
const maxTelegramItems = 20

// TelegramAPI is the subset of *telebot.Bot used to post reports.
type TelegramAPI interface {
	// Send delivers a message to the recipient.
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Telegram posts a short summary of the report to a set of chats.
type Telegram struct {
	log     *slog.Logger
	bot     TelegramAPI
	chatIDs []int64
}

// NewTelegram creates a Telegram notifier. The bot is created offline, so no request
// is made until the first report is sent.
func NewTelegram(log *slog.Logger, token string, chatIDs []int64) (*Telegram, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	return NewTelegramWithAPI(log, bot, chatIDs), nil
}

// NewTelegramWithAPI wires an existing bot client.
func NewTelegramWithAPI(log *slog.Logger, bot TelegramAPI, chatIDs []int64) *Telegram {
	return &Telegram{log: log, bot: bot, chatIDs: chatIDs}
}

// Notify implements Notifier. Every chat is attempted; the first failure is returned.
func (t *Telegram) Notify(ctx context.Context, report models.Report) error {
	const opn = "notifier.Telegram.Notify"

	text := TelegramSummary(report)

	var firstErr error
	for _, chatID := range t.chatIDs {
		if _, err := t.bot.Send(telebot.ChatID(chatID), text, telebot.ModeHTML); err != nil {
			t.log.ErrorContext(ctx, "Failed to send Telegram message", "op", opn, "chat_id", chatID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: failed to send message to chat %d: %w", opn, chatID, err)
			}
			continue
		}
		t.log.InfoContext(ctx, "Telegram message sent", "op", opn, "chat_id", chatID)
	}

	if firstErr != nil {
		return errs.Mark(firstErr, errs.ErrDelivery)
	}

	return nil
}

// TelegramSummary formats the report as a Telegram HTML message.
func TelegramSummary(report models.Report) string {
	var b strings.Builder

	b.WriteString("<b>" + html.EscapeString(report.Subject) + "</b>\n")

	counts := models.CountByKind(report.Changes)
	fmt.Fprintf(&b, "New: %d, changed: %d, removed: %d\n",
		counts[models.ChangeNew], counts[models.ChangeChanged], counts[models.ChangeRemoved])

	for i, c := range report.Changes {
		if i == maxTelegramItems {
			fmt.Fprintf(&b, "…and %d more\n", len(report.Changes)-maxTelegramItems)
			break
		}

		name := html.EscapeString(c.Title)
		if c.URL != "" {
			name = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(c.URL), name)
		}

		status := c.Current.Label()
		if c.Kind == models.ChangeRemoved {
			status = "removed"
		}
		b.WriteString("• " + name + ": " + status)
		if len(c.ChangedSizes) > 0 {
			b.WriteString(" (" + html.EscapeString(strings.Join(c.ChangedSizes, ", ")) + ")")
		}
		b.WriteString("\n")
	}

	return b.String()
}
