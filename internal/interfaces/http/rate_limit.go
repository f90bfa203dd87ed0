package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimitConfig token bucket por IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

// RateLimiter limita por IP los endpoints públicos de webhooks. Excedido responde 429 con Retry-After.
// Los clientes inactivos se purgan durante las propias peticiones; no hay goroutine de fondo.
func RateLimiter(cfg RateLimitConfig) fiber.Handler {
	var (
		mu        sync.Mutex
		clients   = map[string]*clientLimiter{}
		lastSweep = time.Now()
	)

	getLimiter := func(ip string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(lastSweep) >= limiterSweepInterval {
			for k, cl := range clients {
				if now.Sub(cl.lastSeen) > limiterIdleTTL {
					delete(clients, k)
				}
			}
			lastSweep = now
		}
		if cl, ok := clients[ip]; ok {
			cl.lastSeen = now
			return cl.limiter
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		clients[ip] = &clientLimiter{limiter: l, lastSeen: now}
		return l
	}

	return func(c *fiber.Ctx) error {
		limiter := getLimiter(c.IP(), time.Now())
		reservation := limiter.Reserve()
		if !reservation.OK() {
			return tooManyRequests(c, 0)
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			return tooManyRequests(c, int(delay.Seconds())+1)
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx, retryAfter int) error {
	if retryAfter > 0 {
		c.Set("Retry-After", strconv.Itoa(retryAfter))
	}
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
}
