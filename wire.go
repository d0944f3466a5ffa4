package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/ina-negotiation/agent/audit"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	"github.com/tanpawarit/ina-negotiation/agent/llm"
	"github.com/tanpawarit/ina-negotiation/agent/nlu"
	phraserx "github.com/tanpawarit/ina-negotiation/agent/phraser"
	"github.com/tanpawarit/ina-negotiation/agent/prompt"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
	configx "github.com/tanpawarit/ina-negotiation/pkg/config"
	openrouterx "github.com/tanpawarit/ina-negotiation/pkg/openrouter"
	qstashx "github.com/tanpawarit/ina-negotiation/pkg/qstash"
)

func buildStore(ctx context.Context, cfg AppConfig) (statex.Store, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.SessionBackend)) {
	case "", "memory":
		store := statex.NewMemoryStore(cfg.SessionTTL)
		go purgeExpiredSessions(ctx, store, cfg.PurgeInterval)
		return store, noop, nil
	case "upstash":
		redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, noop, err
		}
		store, err := statex.NewUpstashRedisStore(*redisCfg, statex.WithTTL(cfg.SessionTTL))
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "postgres":
		pgCfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, noop, err
		}
		store, err := statex.NewPostgresStore(ctx, *pgCfg, cfg.SessionTTL)
		if err != nil {
			return nil, noop, err
		}
		go purgeExpiredSessions(ctx, store, cfg.PurgeInterval)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("close postgres session store")
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func purgeExpiredSessions(ctx context.Context, store expiredPurger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge expired sessions failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("purged", n).Msg("expired sessions purged")
			}
		}
	}
}

func buildClassifier(cfg AppConfig) (contractx.IntentClassifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ClassifierBackend)) {
	case "", "regex":
		return nlu.RegexClassifier{}, nil
	case "http":
		return nlu.NewClient(nlu.Config{URL: cfg.ClassifierURL, Timeout: cfg.ClassifierTimeout}, nil)
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.ClassifierBackend)
	}
}

func buildPhraser(ctx context.Context, cfg AppConfig) (contractx.ResponsePhraser, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.PhraserBackend))
	switch backend {
	case "", "template":
		return phraserx.NewTemplatePhraser(), nil
	case "http":
		return phraserx.NewClient(phraserx.Config{URL: cfg.PhraserURL, Timeout: cfg.PhraserTimeout}, nil)
	case "eino", "openai":
	default:
		return nil, fmt.Errorf("unknown phraser backend %q", cfg.PhraserBackend)
	}

	llmCfg, err := configx.New[llm.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}
	systemPrompt := prompt.LoadPromptSet().Phraser
	routerCfg := llmCfg.OpenRouter()

	var paraphraser phraserx.Paraphraser
	if backend == "eino" {
		chatModel, err := routerCfg.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		paraphraser, err = phraserx.NewEinoParaphraser(ctx, chatModel, systemPrompt)
		if err != nil {
			return nil, err
		}
	} else {
		client := openrouterx.NewClient(routerCfg)
		if client == nil {
			return nil, fmt.Errorf("openrouter client requires an api key")
		}
		paraphraser, err = phraserx.NewOpenAIParaphraser(client, phraserx.OpenAIConfig{
			Model:        routerCfg.Model,
			SystemPrompt: systemPrompt,
			Temperature:  float64(routerCfg.Temperature),
			MaxTokens:    int64(llmCfg.MaxCompletionToken),
		})
		if err != nil {
			return nil, err
		}
	}

	return phraserx.NewTemplatePhraser(phraserx.WithParaphraser(paraphraser)), nil
}

func buildAudit(cfg AppConfig) (contractx.AuditSink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AuditBackend)) {
	case "none":
		return nil, nil
	case "", "log":
		return audit.LogSink{}, nil
	case "qstash":
		qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			return nil, err
		}
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return nil, err
		}
		return audit.NewQStashSink(client, cfg.AuditDestination)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend)
	}
}
