package middleware

import (
	"strconv"
	"sync"
	"time"

	"beatmarket/config"
	"beatmarket/internal/delivery/api/response"
	"beatmarket/internal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	defaultPurchasesPerMinute = 10
	defaultBurst              = 5
	limiterIdleTTL            = 10 * time.Minute
	limiterSweepSize          = 1024
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles money-moving endpoints with a token bucket per user.
type RateLimitMiddleware struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[uuid.UUID]*userLimiter
	now      func() time.Time
}

// NewRateLimitMiddleware builds the limiter from the rateLimit config section.
func NewRateLimitMiddleware(cfg *config.Config) *RateLimitMiddleware {
	perMinute, burst := float64(defaultPurchasesPerMinute), defaultBurst
	if rl := cfg.RateLimit; rl != nil {
		if rl.PurchasesPerMinute > 0 {
			perMinute = rl.PurchasesPerMinute
		}
		if rl.Burst > 0 {
			burst = rl.Burst
		}
	}

	return &RateLimitMiddleware{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		limiters: make(map[uuid.UUID]*userLimiter),
		now:      time.Now,
	}
}

// Limit must run after Authenticate.
func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := GetUserID(c)
		if !ok {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
		}

		r := m.reserve(userID)
		if !r.OK() {
			return response.TooManyRequests(c, "RATE_LIMITED", "Too many requests")
		}
		if delay := r.DelayFrom(m.now()); delay > 0 {
			r.CancelAt(m.now())
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(delay.Seconds())+1))

			return response.TooManyRequests(c, "RATE_LIMITED", "Too many requests, retry in "+util.FormatDuration(delay))
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) reserve(userID uuid.UUID) *rate.Reservation {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.limiters) >= limiterSweepSize {
		for id, l := range m.limiters {
			if now.Sub(l.lastSeen) > limiterIdleTTL {
				delete(m.limiters, id)
			}
		}
	}

	l, ok := m.limiters[userID]
	if !ok {
		l = &userLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[userID] = l
	}
	l.lastSeen = now

	return l.limiter.ReserveN(now, 1)
}
