package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/logger"
)

const defaultCacheTTL = 5 * time.Minute

// Cacher is the part of the Redis client the response cache needs.
type Cacher interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// cachedResponse is what is stored under a cache key.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into buf, keeping at most max bytes.
// written counts every byte, so written > max marks a truncated copy.
type bodyRecorder struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	written int64
	max     int64
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	keep := int64(len(b))
	if w.max > 0 {
		if room := w.max - w.written; room < keep {
			keep = room
		}
	}
	if keep > 0 {
		w.buf.Write(b[:keep])
	}
	w.written += int64(len(b))
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) complete() bool { return w.max <= 0 || w.written <= w.max }

// responseKey identifies a cached response.  The query string is re-encoded
// so parameter order does not split entries.
func responseKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var sb strings.Builder
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		sb.WriteString(c.Path())
	case "method_route_query":
		sb.WriteString(r.Method + " " + c.Path() + "?" + r.URL.Query().Encode())
	default:
		sb.WriteString(c.Path() + "?" + r.URL.Query().Encode())
	}
	// path params are part of the identity of detail routes
	for _, v := range c.ParamValues() {
		sb.WriteString("|" + v)
	}
	sum := sha1.Sum([]byte(sb.String()))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func replay(c echo.Context, cached cachedResponse) {
	h := c.Response().Header()
	for k, vals := range cached.Header {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		h[k] = append([]string(nil), vals...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cached.Status)
	_, _ = c.Response().Write(cached.Body)
}

// NewRedisCache serves repeated public reads from Redis.  Only 200 responses
// whose body fit in MaxBodyBytes are stored; entries expire after TTL.
func NewRedisCache(cfg config.CacheConfig, rdb Cacher) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	methods := cfg.MethodSet()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !methods[c.Request().Method] {
				return next(c)
			}
			key := responseKey(cfg, c)

			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil && cached.Status != 0 {
					replay(c, cached)
					return nil
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, max: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || !rec.complete() {
				return nil
			}

			header := c.Response().Header().Clone()
			header.Del("X-Cache")
			payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: header, Body: rec.buf.Bytes()})
			if err == nil {
				err = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			if err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Warnf("cache store %s: %v", c.Path(), err)
			}
			return nil
		}
	}
}
