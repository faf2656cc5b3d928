package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"power-roulette/internal/adapters/provider"
	"power-roulette/internal/adapters/telegram"
	"power-roulette/internal/domain"
	"power-roulette/internal/infra/metrics"
	"power-roulette/internal/usecase/outage"
	"power-roulette/internal/usecase/report"
)

const helpText = `Я показую графік відключень світла.

/status [черга] — чи є зараз світло
/schedule [черга] — найближчі відключення
/queues — список черг`

// Handler обслуживает вебхук бота. Состояние читается из зеркала снимков.
type Handler struct {
	bot       telegram.Sender
	log       zerolog.Logger
	snapshots domain.SnapshotCache
	queues    domain.ScheduleProvider
	city      string
	queue     string
	loc       *time.Location
	now       func() time.Time
}

// NewHandler создаёт обработчик для города city с очередью queue по умолчанию.
func NewHandler(bot telegram.Sender, log zerolog.Logger, snapshots domain.SnapshotCache, queues domain.ScheduleProvider, city, queue string, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		bot:       bot,
		log:       log,
		snapshots: snapshots,
		queues:    queues,
		city:      city,
		queue:     queue,
		loc:       loc,
		now:       time.Now,
	}
}

// ParseCommand выделяет команду и аргумент: "/status@bot 1.2" → ("status", "1.2").
func ParseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, arg, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(arg)
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	command, arg := ParseCommand(upd.Message.Text)
	switch command {
	case "start", "help":
		h.reply(chatID, helpText)
	case "status":
		h.handleStatus(ctx, chatID, h.queueOrDefault(arg))
	case "schedule":
		h.handleSchedule(ctx, chatID, h.queueOrDefault(arg))
	case "queues":
		h.handleQueues(ctx, chatID)
	case "":
		return
	default:
		h.reply(chatID, "Невідома команда. Використовуйте /help")
	}
}

func (h *Handler) queueOrDefault(arg string) string {
	if arg != "" {
		return arg
	}
	return h.queue
}

func (h *Handler) handleStatus(ctx context.Context, chatID int64, queue string) {
	snap, ok := h.loadSnapshot(ctx, chatID, queue)
	if !ok {
		return
	}
	now := h.now()
	h.reply(chatID, report.FormatStatus(snap, outage.Resolve(snap.Intervals, now), now, h.loc))
}

func (h *Handler) handleSchedule(ctx context.Context, chatID int64, queue string) {
	snap, ok := h.loadSnapshot(ctx, chatID, queue)
	if !ok {
		return
	}
	h.reply(chatID, report.FormatSchedule(snap, h.now(), h.loc))
}

func (h *Handler) handleQueues(ctx context.Context, chatID int64) {
	if h.queues == nil {
		h.reply(chatID, "Список черг недоступний")
		return
	}
	queues, err := h.queues.ListQueues(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("bot: не удалось получить список очередей")
		h.reply(chatID, "Не вдалося отримати список черг. Спробуйте пізніше")
		return
	}
	provider.SortQueues(queues)
	h.reply(chatID, fmt.Sprintf("Черги (%s):\n%s", h.city, strings.Join(queues, ", ")))
}

func (h *Handler) loadSnapshot(ctx context.Context, chatID int64, queue string) (domain.Snapshot, bool) {
	snap, ok, err := h.snapshots.GetSnapshot(ctx, h.city, queue)
	if err != nil {
		h.log.Error().Err(err).Str("queue", queue).Msg("bot: не удалось прочитать снимок")
		h.reply(chatID, "Не вдалося отримати дані. Спробуйте пізніше")
		return domain.Snapshot{}, false
	}
	if !ok {
		h.reply(chatID, fmt.Sprintf("Немає даних для черги %s", queue))
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (h *Handler) reply(chatID int64, text string) {
	for _, part := range telegram.SplitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("bot: не удалось отправить сообщение")
			return
		}
	}
}
