package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"power-roulette/internal/domain"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if s.err != nil {
		return tgbotapi.Message{}, s.err
	}
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestNotifierSendsHTML(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, -100500, nil)

	restore := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	event := domain.StatusEvent{
		Cause:      domain.StatusCausePower,
		Current:    domain.ResolvedState{Status: domain.PowerOff, NextRestore: &restore},
		OccurredAt: restore.Add(-time.Hour),
	}
	require.NoError(t, n.NotifyStatus(context.Background(), event, domain.Snapshot{City: "Калуш", Queue: "1.1"}))
	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(-100500), sender.sent[0].ChatID)
	require.Equal(t, tgbotapi.ModeHTML, sender.sent[0].ParseMode)
	require.Contains(t, sender.sent[0].Text, "Світло вимкнули")
}

func TestNotifierPropagatesErrors(t *testing.T) {
	n := NewNotifier(&recordingSender{err: errors.New("flood")}, 1, time.UTC)
	err := n.NotifyStatus(context.Background(), domain.StatusEvent{}, domain.Snapshot{})
	require.EqualError(t, err, "flood")
}
