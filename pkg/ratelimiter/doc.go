// Package ratelimiter provides token bucket rate limiting with in-memory and
// Redis stores plus HTTP middleware.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Requests that do not fit are denied without draining the
// bucket further.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 6 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP)).Post("/auth/signin", signIn)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response and Retry-After on 429 responses.
//
// RedisStore runs the same algorithm in a Lua script so that several
// instances share one budget per key.
package ratelimiter
