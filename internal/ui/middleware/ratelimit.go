// ratelimit.go — ограничение частоты попыток входа по IP.
package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/ui/i18n"
)

// loginRateLimitedTotal — отклонённые по лимиту попытки входа.
var loginRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tt_login_rate_limited_total",
	Help: "Общее количество попыток входа, отклонённых по лимиту частоты.",
})

// msgRateLimited — ключ i18n ответа 429.
const msgRateLimited = "auth.error.rate_limited"

// Интервал очистки неактивных лимитеров.
const limiterCleanupInterval = 5 * time.Minute

// RateLimiter — лимит запросов на ключ (IP клиента).
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	logger *slog.Logger

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter создаёт лимитер: requests запросов за window, всплеск до requests.
func NewRateLimiter(requests int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limit:       rate.Limit(float64(requests) / window.Seconds()),
		burst:       requests,
		logger:      logger.With(slog.String("component", "login_rate_limit")),
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// limiter возвращает лимитер ключа, создавая его при отсутствии.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= limiterCleanupInterval {
		rl.lastCleanup = now
		// Лимитер с полным ведром давно не использовался
		for k, l := range rl.limiters {
			if l.TokensAt(now) >= float64(rl.burst) {
				delete(rl.limiters, k)
			}
		}
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Middleware возвращает HTTP middleware. Превышение лимита — 429 с Retry-After.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			l := rl.limiter(key)

			now := rl.now()
			if !l.AllowN(now, 1) {
				reservation := l.ReserveN(now, 1)
				delay := reservation.DelayFrom(now)
				reservation.CancelAt(now)
				retryAfter := max(int(delay.Seconds()), 1)

				loginRateLimitedTotal.Inc()
				rl.logger.Warn("Превышен лимит попыток входа",
					slog.String("key", key),
					slog.Int("retry_after", retryAfter),
				)

				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				http.Error(w, i18n.T(r.Context(), msgRateLimited), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает IP клиента: X-Forwarded-For, X-Real-IP, RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
