package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	pipelinex "github.com/tanpawarit/ina-negotiation/agent/agents/pipeline"
	"github.com/tanpawarit/ina-negotiation/agent/strategy"
	configx "github.com/tanpawarit/ina-negotiation/pkg/config"
	logx "github.com/tanpawarit/ina-negotiation/pkg/logger"
	_ "github.com/tanpawarit/ina-negotiation/pkg/logger/autoload"
	"github.com/tanpawarit/ina-negotiation/transport/httpapi"
)

type AppConfig struct {
	Addr            string        `split_words:"true" default:":8080"`
	ServiceName     string        `split_words:"true" default:"ina-negotiation"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`

	SessionBackend string        `split_words:"true" default:"memory"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	StoreTimeout   time.Duration `split_words:"true" default:"0s"`
	PurgeInterval  time.Duration `split_words:"true" default:"10m"`

	ClassifierBackend string        `split_words:"true" default:"regex"`
	ClassifierURL     string        `envconfig:"CLASSIFIER_URL"`
	ClassifierTimeout time.Duration `split_words:"true" default:"5s"`

	PhraserBackend string        `split_words:"true" default:"template"`
	PhraserURL     string        `envconfig:"PHRASER_URL"`
	PhraserTimeout time.Duration `split_words:"true"`

	SerializeSessions bool    `split_words:"true" default:"false"`
	MAM               float64 `envconfig:"MAM" default:"150"`
	AskingPrice       float64 `split_words:"true" default:"200"`

	AuditBackend     string `split_words:"true" default:"log"`
	AuditDestination string `split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("INA")
	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, *appCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.SessionBackend).Msg("failed to initialize session store")
	}
	defer closeStore()

	classifier, err := buildClassifier(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.ClassifierBackend).Msg("failed to initialize classifier")
	}

	phraser, err := buildPhraser(ctx, *appCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.PhraserBackend).Msg("failed to initialize phraser")
	}

	audit, err := buildAudit(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", appCfg.AuditBackend).Msg("failed to initialize audit sink")
	}

	prices, err := pipelinex.NewStaticPriceSource(appCfg.MAM, appCfg.AskingPrice)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid price configuration")
	}

	coordinator, err := pipelinex.New(store, classifier, strategy.RuleBased{}, phraser, prices, audit, pipelinex.Config{
		ClassifierTimeout: appCfg.ClassifierTimeout,
		PhraserTimeout:    appCfg.PhraserTimeout,
		StoreTimeout:      appCfg.StoreTimeout,
		SerializeSessions: appCfg.SerializeSessions,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline")
	}

	handler := httpapi.NewHandler(coordinator, strategy.RuleBased{}, phraser, store, httpapi.Config{
		ServiceName: appCfg.ServiceName,
	})

	srv := &http.Server{
		Addr:              appCfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("session_backend", appCfg.SessionBackend).
			Str("classifier_backend", appCfg.ClassifierBackend).
			Str("phraser_backend", appCfg.PhraserBackend).
			Bool("serialize_sessions", appCfg.SerializeSessions).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
