// Package notify sends pipeline completion summaries to the user's Telegram
// chat. Notification is optional; a nil Notifier is a no-op.
package notify

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers run summaries. Implementations must tolerate concurrent use.
type Notifier interface {
	PipelineFinished(summary RunSummary) error
	PipelineFailed(err error) error
}

// RunSummary is what a finished pipeline run reports.
type RunSummary struct {
	PostingsCollected int
	MatchesCreated    int
	DraftsGenerated   int
	NeedsReview       int
	Failures          int
}

// TelegramNotifier sends summaries through a Telegram bot.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

// PipelineFinished reports a completed run.
func (t *TelegramNotifier) PipelineFinished(summary RunSummary) error {
	text := fmt.Sprintf(
		"<b>Pipeline run finished</b>\n"+
			"Postings collected: %d\n"+
			"New matches: %d\n"+
			"Drafts generated: %d\n"+
			"Needs review: %d",
		summary.PostingsCollected,
		summary.MatchesCreated,
		summary.DraftsGenerated,
		summary.NeedsReview,
	)
	if summary.Failures > 0 {
		text += fmt.Sprintf("\nFailures: %d", summary.Failures)
	}
	return t.send(text)
}

// PipelineFailed reports a run that did not complete.
func (t *TelegramNotifier) PipelineFailed(err error) error {
	return t.send(fmt.Sprintf("<b>Pipeline run failed</b>:\n%s", html.EscapeString(err.Error())))
}
