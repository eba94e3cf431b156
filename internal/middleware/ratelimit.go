package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// maxTrackedClients bounds the limiter table; the least recently seen
// client is forgotten first.
const maxTrackedClients = 10000

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	logger  *logrus.Logger
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	clients *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with the given burst.
func NewRateLimiter(cfg domain.RateLimitConfig, logger *logrus.Logger) *RateLimiter {
	clients, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		logger:  logger,
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		clients: clients,
	}
}

// Allow reports whether the client may make a request now
func (rl *RateLimiter) Allow(clientID string) bool {
	return rl.limiter(clientID).Allow()
}

func (rl *RateLimiter) limiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.clients.Get(clientID); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients.Add(clientID, l)
	return l
}

// Tracked returns the number of clients with a live bucket
func (rl *RateLimiter) Tracked() int {
	return rl.clients.Len()
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := "1"
	if rl.limit > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(rl.limit))))
	}

	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if rl.Allow(clientID) {
			c.Next()
			return
		}

		rl.logger.WithFields(logrus.Fields{
			CorrelationIDKey: GetCorrelationID(c),
			"client_ip":      clientID,
			"path":           c.FullPath(),
		}).Warn("Request denied: rate limit exceeded")

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAPIError(
			domain.ErrCodeRateLimit,
			"rate limit exceeded",
			"retry after "+retryAfter+"s",
			GetCorrelationID(c),
		))
	}
}
