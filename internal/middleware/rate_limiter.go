package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"gstbilling/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry counts requests from one client IP in the current window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter is a fixed-window counter keyed by client IP.
type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		entries: make(map[string]*windowEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within the
// limit, plus the time the current window ends.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops entries whose window has closed and returns how many it removed.
func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

func (l *windowLimiter) middleware(msg string) gin.HandlerFunc {
	startPurger(l)
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter(20, time.Minute).middleware("Too many login attempts, try again in a minute")
}

// RateLimiter limits every client IP to limit requests per window.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter(limit, window).middleware(apierror.MsgTooManyReqs)
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// A single background goroutine sweeps every registered limiter so that IPs
// which never return do not accumulate.

const purgeInterval = 5 * time.Minute

var (
	limitersMu  sync.Mutex
	limiters    []*windowLimiter
	purgerStart sync.Once
)

func startPurger(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgerStart.Do(func() { go purgeExpiredEntries() })
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		limitersMu.Lock()
		all := append([]*windowLimiter(nil), limiters...)
		limitersMu.Unlock()

		purged := 0
		for _, l := range all {
			purged += l.purge()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter maps purged")
		}
	}
}
