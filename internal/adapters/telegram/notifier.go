package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
	"power-roulette/internal/usecase/report"
)

// Sender покрывает ту часть tgbotapi.BotAPI, что нужна для отправки.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет уведомления об изменении состояния в один чат.
type Notifier struct {
	bot    Sender
	chatID int64
	loc    *time.Location
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier создаёт уведомитель; время в сообщениях показывается в loc.
func NewNotifier(bot Sender, chatID int64, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{bot: bot, chatID: chatID, loc: loc}
}

// NotifyStatus отправляет сообщение о событии.
func (n *Notifier) NotifyStatus(ctx context.Context, event domain.StatusEvent, snap domain.Snapshot) error {
	for _, part := range SplitMessage(report.FormatEvent(event, snap, n.loc)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		start := time.Now()
		_, err := n.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(n.chatID, 10), start, err)
		if err != nil {
			return err
		}
	}
	return nil
}
