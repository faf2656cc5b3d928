package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	t.Setenv("CITY", "Калуш")
	t.Setenv("POLL_INTERVAL", "90s")
	t.Setenv("TG_NOTIFY_CHAT_ID", "-100123")

	cfg, err := Process()
	require.NoError(t, err)
	require.Equal(t, "Калуш", cfg.City)
	require.Equal(t, 90*time.Second, cfg.Poll.Interval)
	require.Equal(t, 20*time.Second, cfg.Poll.FetchTimeout)
	require.Equal(t, int64(-100123), cfg.Telegram.NotifyChatID)
	require.Equal(t, "outage_events", cfg.Queues.Events)
}

func TestProcessRejectsBadDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "скоро")

	_, err := Process()
	require.Error(t, err)
}
