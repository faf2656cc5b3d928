package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Kyiv"`

	City  string `envconfig:"CITY" default:"Івано-Франківськ"`
	Queue string `envconfig:"QUEUE" default:"1.1"`

	Poll struct {
		Interval     time.Duration `envconfig:"POLL_INTERVAL" default:"5m"`
		FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	} `envconfig:""`

	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	APIToken    string `envconfig:"API_TOKEN"`

	Telegram struct {
		Token        string `envconfig:"TG_BOT_TOKEN"`
		NotifyChatID int64  `envconfig:"TG_NOTIFY_CHAT_ID"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RabbitMQ struct {
		URL           string `envconfig:"RABBITMQ_URL"`
		ManagementURL string `envconfig:"RABBITMQ_MANAGEMENT_URL"`
	} `envconfig:""`

	Queues struct {
		Events string `envconfig:"EVENTS_QUEUE_KEY" default:"outage_events"`
	} `envconfig:""`

	Providers struct {
		IFBaseURL string `envconfig:"IF_BASE_URL"`
		LOEURL    string `envconfig:"LOE_BASE_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Process()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Process разбирает окружение без завершения процесса.
func Process() (AppConfig, error) {
	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
