package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/session"
)

type ctxKey int

const sessionIDKey ctxKey = iota

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// statusRecorder captures the status code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.InfoCF("server", "Request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.ErrorCF("server", "Handler panic", map[string]interface{}{
					"path":  r.URL.Path,
					"panic": p,
					"stack": string(debug.Stack()),
				})
				writeError(w, http.StatusInternalServerError, ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the session cookie, issuing a new session when it
// is missing or forged, and refreshes the cookie's lifetime on every request
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(config.SessionCookieName); err == nil {
			id, _ = s.cookies.decode(c.Value)
		}
		if id == "" {
			id = session.NewID()
		}

		http.SetCookie(w, s.cookies.cookie(id, r.TLS != nil))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, id)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientLimiter keeps one token bucket per client address
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter returns a limiter; a non-positive rate disables limiting
func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{limit: limit, burst: burst, clients: make(map[string]*limiterEntry)}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

func (l *clientLimiter) prune(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// cookieCodec signs session IDs so clients cannot pick another session's ID
type cookieCodec struct {
	secret []byte
	ttl    time.Duration
}

func newCookieCodec(secret string, ttl time.Duration) *cookieCodec {
	return &cookieCodec{secret: []byte(secret), ttl: ttl}
}

func (c *cookieCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *cookieCodec) encode(id string) string {
	return id + "." + c.sign(id)
}

// decode returns the session ID when the value carries a valid signature
func (c *cookieCodec) decode(value string) (string, bool) {
	id, sig, found := strings.Cut(value, ".")
	if !found || !session.ValidID(id) {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

func (c *cookieCodec) cookie(id string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    c.encode(id),
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
