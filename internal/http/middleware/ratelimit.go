package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/memestream/memestream-service/internal/ratelimit"
	"github.com/memestream/memestream-service/internal/utils/response"
)

// KeyFunc resolves the bucket key for a request. The legacy surface has no
// authentication, so keys come from a path segment where one identifies the
// caller, with the remote host as fallback.
type KeyFunc func(r *http.Request) string

// RemoteHostKey keys the bucket by client address.
func RemoteHostKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// PathValueKey keys the bucket by a path parameter, falling back to the
// remote host when it is empty.
func PathValueKey(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := r.PathValue(name); v != "" {
			return v
		}
		return RemoteHostKey(r)
	}
}

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	config := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
	}

	// POST /memes: 20/min per uploader
	config.limiters["memes"] = ratelimit.NewTokenBucket(redisClient, 20, 20)

	// POST /memes/{id}/comments: 30/min per commenter
	config.limiters["comments"] = ratelimit.NewTokenBucket(redisClient, 30, 30)

	// POST /messages/send: 60/min per sender
	config.limiters["messages"] = ratelimit.NewTokenBucket(redisClient, 60, 60)

	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)

			allowed, err := limiter.Allow(r.Context(), key, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), key, action)
			w.Header().Set("X-RateLimit-Limit", limitForAction(action))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action.
func (rlc *RateLimitConfig) RateLimitedHandler(action string, keyFn KeyFunc, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action, keyFn)(handler)
}

func limitForAction(action string) string {
	switch action {
	case "memes":
		return "20"
	case "comments":
		return "30"
	case "messages":
		return "60"
	default:
		return "100"
	}
}
