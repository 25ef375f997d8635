package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter ограничивает число запросов с одного ключа за окно времени
// (fixed window: после окончания окна bucket пополняется полностью)
type RateLimiter struct {
	now      func() time.Time
	buckets  map[string]*bucket
	cleanupC chan struct{}
	stopOnce sync.Once
	rate     int
	window   time.Duration
	mu       sync.RWMutex
}

// bucket представляет bucket для конкретного IP/ключа
type bucket struct {
	lastRefill time.Time
	tokens     int
	mu         sync.Mutex
}

// NewRateLimiter создает новый rate limiter
// rate - максимальное количество запросов в окне
// window - временное окно (например, 1 минута)
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		window:   window,
		now:      time.Now,
		cleanupC: make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// cleanup периодически удаляет неактивные buckets
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, которые не использовались дольше двух окон
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop останавливает cleanup goroutine. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.cleanupC) })
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Двойная проверка: bucket мог появиться, пока ждали write lock
		if b, exists = rl.buckets[key]; !exists {
			b = &bucket{tokens: rl.rate, lastRefill: rl.now()}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// RouteLimit задает лимит для пары метод + путь
type RouteLimit struct {
	Method string
	Path   string
	Rate   int
	Window time.Duration
}

// PathLimiter применяет лимиты только к перечисленным маршрутам,
// остальные запросы проходят без ограничений
type PathLimiter struct {
	logger     *slog.Logger
	limiters   map[string]*RateLimiter
	trustProxy bool
}

// NewPathLimiter создает limiter для маршрутов. Лимиты с Rate <= 0 пропускаются.
// trustProxy разрешает брать IP клиента из X-Forwarded-For и X-Real-IP,
// иначе ключом служит адрес соединения.
func NewPathLimiter(logger *slog.Logger, trustProxy bool, limits ...RouteLimit) *PathLimiter {
	pl := &PathLimiter{
		logger:     logger,
		limiters:   make(map[string]*RateLimiter, len(limits)),
		trustProxy: trustProxy,
	}
	for _, l := range limits {
		if l.Rate <= 0 || l.Window <= 0 {
			continue
		}
		pl.limiters[routeKey(l.Method, l.Path)] = NewRateLimiter(l.Rate, l.Window)
	}
	return pl
}

// Middleware возвращает http middleware
func (pl *PathLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, ok := pl.limiters[routeKey(r.Method, r.URL.Path)]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := getClientIP(r, pl.trustProxy)
		if !limiter.Allow(key) {
			pl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			writeError(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop останавливает все limiters
func (pl *PathLimiter) Stop() {
	for _, l := range pl.limiters {
		l.Stop()
	}
}

func routeKey(method, path string) string {
	return method + " " + path
}

// getClientIP извлекает IP адрес клиента из запроса.
// Заголовки X-Forwarded-For и X-Real-IP учитываются только при trustProxy:
// без прокси их может подставить сам клиент.
func getClientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	// Порт у клиента меняется от соединения к соединению
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
