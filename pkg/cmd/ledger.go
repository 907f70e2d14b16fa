package cmd

import (
	"fmt"
	"log/slog"

	"github.com/campuskit/coursecycle/pkg/delay"
	"github.com/campuskit/coursecycle/pkg/delay/redisledger"
	"github.com/campuskit/coursecycle/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// NewDelayLedger backs the delay ledger with Redis when a URL is given,
// falling back to the SQL delay repository otherwise.
func NewDelayLedger(redisURL string, persist persistence.Persistence, logger *slog.Logger) delay.Ledger {
	if redisURL == "" {
		return delay.NewStore(persist.DelayRepository(), logger)
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis URL: %w", err))
	}

	return redisledger.NewLedger(redis.NewClient(options), logger)
}
