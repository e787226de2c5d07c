// Package redis connects to Redis with github.com/redis/go-redis/v9 and
// exposes a readiness probe. The auth package stores revoked refresh token ids
// through the returned client.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	denylist := auth.NewRedisDenylist(client)
package redis
