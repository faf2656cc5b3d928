package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
)

type fakeSender struct {
	texts []string
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.texts = append(s.texts, c.(tgbotapi.MessageConfig).Text)
	return tgbotapi.Message{}, nil
}

type fakeSnapshots map[string]domain.Snapshot

func (f fakeSnapshots) PutSnapshot(context.Context, domain.Snapshot) error { return nil }

func (f fakeSnapshots) GetSnapshot(_ context.Context, city, queue string) (domain.Snapshot, bool, error) {
	if queue == "boom" {
		return domain.Snapshot{}, false, errors.New("redis down")
	}
	snap, ok := f[city+"/"+queue]
	return snap, ok, nil
}

type fakeQueues struct{}

func (fakeQueues) Name() string { return "fake" }
func (fakeQueues) ListQueues(context.Context) ([]string, error) {
	return []string{"2.1", "1.2", "1.1"}, nil
}
func (fakeQueues) FetchSchedule(context.Context, string) ([]domain.RawDayRecord, error) {
	return nil, nil
}

func message(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 42}}}
}

func newHandler(sender *fakeSender) *Handler {
	now := time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC)
	snaps := fakeSnapshots{
		"Калуш/1.1": {City: "Калуш", Queue: "1.1", Intervals: []domain.ResolvedInterval{{
			Start:  now.Add(-30 * time.Minute),
			End:    now.Add(90 * time.Minute),
			Status: domain.IntervalOff,
		}}},
	}
	h := NewHandler(sender, zerolog.Nop(), snaps, fakeQueues{}, "Калуш", "1.1", time.UTC)
	h.now = func() time.Time { return now }
	return h
}

func TestParseCommand(t *testing.T) {
	cmd, arg := ParseCommand(" /Status@power_bot  1.2 ")
	require.Equal(t, "status", cmd)
	require.Equal(t, "1.2", arg)

	cmd, arg = ParseCommand("/schedule")
	require.Equal(t, "schedule", cmd)
	require.Empty(t, arg)

	cmd, _ = ParseCommand("привіт")
	require.Empty(t, cmd)
}

func TestHandleStatusResolvesLive(t *testing.T) {
	sender := &fakeSender{}
	newHandler(sender).HandleUpdate(context.Background(), message("/status"))
	require.Len(t, sender.texts, 1)
	require.Contains(t, sender.texts[0], "Світла немає")
	require.Contains(t, sender.texts[0], "In 1h 30m")
}

func TestHandleScheduleUnknownQueue(t *testing.T) {
	sender := &fakeSender{}
	newHandler(sender).HandleUpdate(context.Background(), message("/schedule 9.9"))
	require.Equal(t, []string{"Немає даних для черги 9.9"}, sender.texts)
}

func TestHandleCacheError(t *testing.T) {
	sender := &fakeSender{}
	newHandler(sender).HandleUpdate(context.Background(), message("/status boom"))
	require.Len(t, sender.texts, 1)
	require.Contains(t, sender.texts[0], "Не вдалося")
}

func TestHandleQueuesSorted(t *testing.T) {
	sender := &fakeSender{}
	newHandler(sender).HandleUpdate(context.Background(), message("/queues"))
	require.Equal(t, []string{"Черги (Калуш):\n1.1, 1.2, 2.1"}, sender.texts)
}

func TestHandleIgnoresPlainText(t *testing.T) {
	sender := &fakeSender{}
	h := newHandler(sender)
	h.HandleUpdate(context.Background(), message("що там зі світлом?"))
	h.HandleUpdate(context.Background(), tgbotapi.Update{})
	require.Empty(t, sender.texts)

	h.HandleUpdate(context.Background(), message("/unknown"))
	require.Len(t, sender.texts, 1)
}
