// Package httpapi exposes the negotiation pipeline and its stage boundaries
// over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	pipelinex "github.com/tanpawarit/ina-negotiation/agent/agents/pipeline"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	"github.com/tanpawarit/ina-negotiation/agent/nlu"
)

// Chatter runs one negotiation turn.
type Chatter interface {
	HandleMessage(ctx context.Context, userID string, message string) (pipelinex.Reply, error)
}

// Pinger reports downstream reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	ServiceName   string
	HealthTimeout time.Duration
}

type Handler struct {
	chat    Chatter
	decider contractx.Decider
	phraser contractx.ResponsePhraser
	parse   func(text string) nlu.ParseResponse
	health  Pinger

	serviceName   string
	healthTimeout time.Duration
}

func NewHandler(
	chat Chatter,
	decider contractx.Decider,
	phraser contractx.ResponsePhraser,
	health Pinger,
	cfg Config,
) *Handler {
	h := &Handler{
		chat:          chat,
		decider:       decider,
		phraser:       phraser,
		parse:         nlu.Parse,
		health:        health,
		serviceName:   cfg.ServiceName,
		healthTimeout: cfg.HealthTimeout,
	}
	if h.serviceName == "" {
		h.serviceName = "ina"
	}
	if h.healthTimeout <= 0 {
		h.healthTimeout = 2 * time.Second
	}
	return h
}

// Router builds the chi router with request-id, real-ip, panic recovery and
// zerolog access logging.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(chiMiddleware.Recoverer)

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/parse", h.Parse)
	if h.decider != nil {
		r.Post("/decide", h.Decide)
	}
	if h.phraser != nil {
		r.Post("/phrase", h.Phrase)
	}
	if h.chat != nil {
		r.Route("/ina/v1", func(r chi.Router) {
			r.Post("/chat", h.Chat)
		})
	}
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	var event *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		event = hlog.FromRequest(r).Error()
	case status >= http.StatusBadRequest:
		event = hlog.FromRequest(r).Warn()
	default:
		event = hlog.FromRequest(r).Info()
	}
	event.
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
