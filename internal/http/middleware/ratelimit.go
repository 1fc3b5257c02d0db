package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientInfo struct {
	limiter *rate.Limiter
	last    time.Time
}

// localLimiter is the in-process limiter used when Redis is not configured.
type localLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   rate.Limit
	burst   int
	window  time.Duration
}

func newLocalLimiter(maxRequests int, window time.Duration) *localLimiter {
	return &localLimiter{
		clients: make(map[string]*clientInfo),
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		window:  window,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	ci, ok := l.clients[key]
	if !ok {
		ci = &clientInfo{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = ci
	}
	ci.last = now

	// drop idle entries so the map does not grow with every address seen
	if len(l.clients) > 1024 {
		for k, v := range l.clients {
			if now.Sub(v.last) > l.window {
				delete(l.clients, k)
			}
		}
	}
	return ci.limiter.AllowN(now, 1)
}

// LocalRateLimit limits each client IP to maxRequests per window inside this process.
func LocalRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			tooMany(c, window)
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func tooMany(c *gin.Context, window time.Duration) {
	c.Header("Retry-After", formatSeconds(window))
	c.String(http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again.")
	c.Abort()
}
