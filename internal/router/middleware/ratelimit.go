package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов отдельно для каждого клиента.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	logger  *zap.Logger
}

// NewRateLimiter создает новый экземпляр RateLimiter.
func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		logger:  logger,
	}
}

// clientKey - пользователь из токена, если он уже известен, иначе IP.
func clientKey(r *http.Request) string {
	if identity, ok := IdentityFromContext(r.Context()); ok {
		return "user:" + identity.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = time.Now()
	return client.limiter
}

// Limit возвращает middleware, отвечающий 429 при превышении лимита.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.limiterFor(key).Allow() {
			rl.logger.Warn("rate limit exceeded", zap.String("client", key), zap.String("path", r.URL.Path))
			utils.SendErrorResponse(w, http.StatusTooManyRequests, "RateLimitExceeded", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Prune удаляет клиентов, не обращавшихся дольше maxIdle, и возвращает их количество.
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, client := range rl.clients {
		if time.Since(client.lastSeen) > maxIdle {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// RunCleanup периодически вызывает Prune до отмены ctx.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Prune(3 * interval); n > 0 {
				rl.logger.Debug("rate limiter cleanup", zap.Int("removed", n))
			}
		}
	}
}
