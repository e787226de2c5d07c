package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Pinger is the part of a redis client a readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Healthcheck returns a readiness probe that fails with ErrUnhealthy when
// PING does not answer PONG.
func Healthcheck(client Pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			return errors.Join(ErrUnhealthy, err)
		}
		if pong != "PONG" {
			return errors.Join(ErrUnhealthy, errors.New("unexpected reply "+pong))
		}
		return nil
	}
}
