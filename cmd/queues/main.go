package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"power-roulette/internal/adapters/provider"
	"power-roulette/internal/domain"
	"power-roulette/internal/infra/httpclient"
)

func main() {
	var (
		city    string
		timeout time.Duration
	)
	flag.StringVar(&city, "city", "", "City to list outage queues for")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "Request timeout")
	flag.Parse()

	if city == "" {
		fmt.Fprintf(os.Stderr, "supported cities: %s\n", strings.Join(provider.Cities(), ", "))
		log.Fatal().Msg("queues: city is required (-city)")
	}

	source, err := provider.ForCity(city, provider.Options{HTTPClient: httpclient.New(httpclient.Options{Timeout: timeout})})
	if err != nil {
		log.Fatal().Err(err).Msg("queues: unsupported city")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	queues, err := source.ListQueues(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProviderUnavailable):
			log.Fatal().Err(err).Msg("queues: provider is unavailable, try again later")
		case errors.Is(err, domain.ErrProviderFormat):
			log.Fatal().Err(err).Msg("queues: provider returned an unexpected response")
		default:
			log.Fatal().Err(err).Msg("queues: failed to list queues")
		}
	}
	provider.SortQueues(queues)
	for _, q := range queues {
		fmt.Println(q)
	}
	log.Info().Str("city", city).Str("provider", source.Name()).Int("count", len(queues)).Msg("queues: done")
}
