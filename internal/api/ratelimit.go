package api

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/goliatone/go-translations/internal/auth"
)

const (
	defaultPerMinute       = 60
	defaultCleanupInterval = 5 * time.Minute
	defaultEntryTTL        = 10 * time.Minute
	defaultMaxEntries      = 100000
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// KeyedLimiter applies a per-minute token bucket independently per key.
type KeyedLimiter struct {
	mu        sync.RWMutex
	entries   map[string]*limiterEntry
	perMinute int
	entryTTL  time.Duration
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewKeyedLimiter allows perMinute requests per key per minute, with a burst
// of the same size, and starts the idle-entry cleanup loop.
func NewKeyedLimiter(perMinute int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	kl := &KeyedLimiter{
		entries:   make(map[string]*limiterEntry),
		perMinute: perMinute,
		entryTTL:  defaultEntryTTL,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}

	go kl.cleanupLoop(defaultCleanupInterval)
	return kl
}

// Allow consumes a token for key. When the bucket is empty it reports how
// long the caller should wait.
func (k *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	entry := k.getOrCreateEntry(normalizeKey(key))
	now := k.now()
	entry.lastAccess.Store(now.UnixNano())

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Limit returns the configured requests per minute.
func (k *KeyedLimiter) Limit() int {
	return k.perMinute
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// Close stops the cleanup goroutine.
func (k *KeyedLimiter) Close() error {
	k.stopOnce.Do(func() {
		close(k.stopCh)
	})
	return nil
}

func normalizeKey(key string) string {
	if key == "" {
		return "unknown"
	}
	return key
}

func (k *KeyedLimiter) getOrCreateEntry(key string) *limiterEntry {
	k.mu.RLock()
	entry, found := k.entries[key]
	k.mu.RUnlock()
	if found {
		return entry
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	entry, found = k.entries[key]
	if found {
		return entry
	}

	entry = &limiterEntry{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(k.perMinute)), k.perMinute),
	}
	entry.lastAccess.Store(k.now().UnixNano())
	k.entries[key] = entry

	k.evictIfNeededLocked()
	return entry
}

func (k *KeyedLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.cleanupExpired()
		case <-k.stopCh:
			return
		}
	}
}

func (k *KeyedLimiter) cleanupExpired() {
	cutoff := k.now().Add(-k.entryTTL).UnixNano()

	k.mu.Lock()
	defer k.mu.Unlock()

	for key, entry := range k.entries {
		if entry.lastAccess.Load() < cutoff {
			delete(k.entries, key)
		}
	}
}

func (k *KeyedLimiter) evictIfNeededLocked() {
	for len(k.entries) > defaultMaxEntries {
		oldestKey := ""
		oldest := k.now().UnixNano()
		for key, entry := range k.entries {
			if last := entry.lastAccess.Load(); last <= oldest {
				oldest = last
				oldestKey = key
			}
		}
		if oldestKey == "" {
			return
		}
		delete(k.entries, oldestKey)
	}
}

// rateLimit keys requests by the authenticated subject, falling back to the
// client IP.
func rateLimit(limiter *KeyedLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		scope, key := "ip", clientIP(r)
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.Subject != "" {
			scope, key = "user", claims.Subject
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))
		w.Header().Set("X-RateLimit-Scope", scope)

		allowed, wait := limiter.Allow(scope + ":" + key)
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too Many Attempts.", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
