package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("prod", &buf)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Debug().Msg("скрыто")
	logger.Info().Str("queue", "1.1").Msg("poll: цикл завершён")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "1.1", entry["queue"])
	require.Equal(t, "power-roulette", entry["service"])
}

func TestNewLoggerDevIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("dev", &buf)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Msg("видно")
	require.Contains(t, buf.String(), "видно")
}
