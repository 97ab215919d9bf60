// Package router wires handlers, authentication, role checks, throttles and
// the response cache onto echo routes.  Every API route lives under /v1.
package router

import (
	"net"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/handler"
	"github.com/iliyamo/job-board/internal/middleware"
	"github.com/iliyamo/job-board/internal/throttle"
)

// Handlers groups the resource handlers.
type Handlers struct {
	Auth         *handler.AuthHandler
	Account      *handler.AccountHandler
	Catalog      *handler.CatalogHandler
	Jobs         *handler.JobHandler
	Applications *handler.ApplicationHandler
}

// Options carries the cross-cutting pieces.  Cache may be nil.
type Options struct {
	JWTSecret string
	Limits    config.RateLimitConfig
	Rates     map[string]config.Rate
	Limiter   throttle.Limiter
	Cache     echo.MiddlewareFunc
	MediaRoot string
	MediaURL  string
	DB        handler.Pinger

	// TrustedProxies may set X-Forwarded-For.  With none, the peer address
	// is the client IP and forwarding headers are ignored.
	TrustedProxies []*net.IPNet
}

const (
	msgRegisterThrottled = "Too many register attempts. Please wait before trying again."
	msgLoginThrottled    = "Too many login attempts. Please wait before trying again."
	msgThrottled         = "Too many attempts. Please wait before trying again."
)

func (o Options) throttle(scope string, by middleware.KeyBy, msg string) echo.MiddlewareFunc {
	return middleware.Throttle(o.Limits, o.Limiter, middleware.ThrottleRule{
		Scope:   scope,
		Rate:    o.Rates[scope],
		KeyBy:   by,
		Message: msg,
	})
}

func (o Options) cache() echo.MiddlewareFunc {
	if o.Cache == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return o.Cache
}

// Register mounts every route on e.
func Register(e *echo.Echo, h Handlers, o Options) {
	e.IPExtractor = clientIP(o.TrustedProxies)
	registerOps(e, o)
	registerAuth(e, h.Auth, o)
	registerAccount(e, h.Account, o)
	registerCatalog(e, h.Catalog, o)
	registerJobs(e, h.Jobs, o)
	registerApplications(e, h.Applications, o)
}

// clientIP decides which address throttles count per anonymous client.
func clientIP(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// registerOps mounts health, metrics and the uploaded media.
func registerOps(e *echo.Echo, o Options) {
	e.GET("/healthz", handler.Health(o.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if o.MediaRoot != "" {
		url := o.MediaURL
		if url == "" {
			url = "/media"
		}
		e.Static(url, o.MediaRoot)
	}
}
