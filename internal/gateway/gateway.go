// Package gateway validates client requests and forwards the valid ones to
// the shareit server.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Forwarder sends a validated request on to the server.
type Forwarder interface {
	Forward(ctx context.Context, method, requestURI string, body []byte, header http.Header) (*Response, error)
}

type Gateway struct {
	forwarder Forwarder
	limiter   domain.RateLimiter
	limit     config.GatewayRateLimitConfig
	checks    *checker
	handler   http.Handler
	server    *http.Server
	logger    *zerolog.Logger
}

// New builds the gateway. limiter may be nil when rate limiting is disabled.
func New(cfg config.GatewayConfig, forwarder Forwarder, limiter domain.RateLimiter, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	g := &Gateway{
		forwarder: forwarder,
		limiter:   limiter,
		limit:     cfg.RateLimit,
		checks:    newChecker(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	g.routes(mux)
	g.handler = api.RequestIDMiddleware(api.LoggingMiddleware(logger)(api.MetricsMiddleware(g.rateLimit(mux))))

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return g
}

func (g *Gateway) routes(mux *http.ServeMux) {
	c := g.checks
	id := pathID("id")

	mux.Handle("POST /users", g.forward(false, bodyOf[createUserDTO](c)))
	mux.Handle("GET /users", g.forward(false, nil))
	mux.Handle("GET /users/{id}", g.forward(false, id))
	mux.Handle("PATCH /users/{id}", g.forward(false, all(id, bodyOf[updateUserDTO](c))))
	mux.Handle("DELETE /users/{id}", g.forward(false, id))

	mux.Handle("POST /items", g.forward(true, bodyOf[createItemDTO](c)))
	mux.Handle("GET /items", g.forward(true, c.page))
	mux.Handle("GET /items/search", g.forward(false, c.page))
	mux.Handle("GET /items/{id}", g.forward(true, id))
	mux.Handle("PATCH /items/{id}", g.forward(true, all(id, bodyOf[updateItemDTO](c))))
	mux.Handle("DELETE /items/{id}", g.forward(true, id))
	mux.Handle("POST /items/{id}/comment", g.forward(true, all(id, bodyOf[commentDTO](c))))

	mux.Handle("POST /bookings", g.forward(true, c.createBooking()))
	mux.Handle("GET /bookings", g.forward(true, all(c.state, c.page)))
	mux.Handle("GET /bookings/owner", g.forward(true, all(c.state, c.page)))
	mux.Handle("GET /bookings/owner/export", g.forward(true, c.state))
	mux.Handle("GET /bookings/{id}", g.forward(true, id))
	mux.Handle("PATCH /bookings/{id}", g.forward(true, all(id, c.approval)))

	mux.Handle("POST /requests", g.forward(true, bodyOf[requestDTO](c)))
	mux.Handle("GET /requests", g.forward(true, c.page))
	mux.Handle("GET /requests/all", g.forward(true, c.page))
	mux.Handle("GET /requests/{id}", g.forward(true, id))
}

func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// forward validates the request and, when valid, relays it to the server and
// copies the reply back unchanged.
func (g *Gateway) forward(requireUser bool, ch check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		if requireUser {
			if _, err := api.UserID(r); err != nil {
				api.WriteError(w, api.StatusFor(err), err.Error())
				return
			}
		}
		if ch != nil {
			if err := ch(r, body); err != nil {
				api.WriteError(w, api.StatusFor(err), err.Error())
				return
			}
		}

		resp, err := g.forwarder.Forward(r.Context(), r.Method, r.URL.RequestURI(), body, r.Header)
		if err != nil {
			g.logger.Error().
				Err(err).
				Str("request_id", api.RequestIDFromContext(r.Context())).
				Str("uri", r.URL.RequestURI()).
				Msg("server request failed")
			api.WriteError(w, http.StatusBadGateway, "server unavailable")
			return
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			w.Header().Set("Content-Disposition", cd)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(resp.Body)
	})
}

// rateLimit enforces the per-user window. Limiter errors let the request through.
func (g *Gateway) rateLimit(next http.Handler) http.Handler {
	if g.limiter == nil || g.limit.Requests <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := g.limiter.Allow(r.Context(), api.ClientKey(r), g.limit.Requests, g.limit.Window)
		if err != nil {
			g.logger.Warn().Err(err).Msg("rate limiter failed")
		} else if !allowed {
			api.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}
