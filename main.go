package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	orchestrator "github.com/tanpawarit/Chative-Voice-Booking/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Voice-Booking/agent/agents/receptionist"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	llmx "github.com/tanpawarit/Chative-Voice-Booking/agent/llm"
	promptx "github.com/tanpawarit/Chative-Voice-Booking/agent/prompt"
	"github.com/tanpawarit/Chative-Voice-Booking/agent/records"
	"github.com/tanpawarit/Chative-Voice-Booking/agent/server"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
	configx "github.com/tanpawarit/Chative-Voice-Booking/pkg/config"
	_ "github.com/tanpawarit/Chative-Voice-Booking/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Voice-Booking/pkg/openrouter"
	qstashx "github.com/tanpawarit/Chative-Voice-Booking/pkg/qstash"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverCfg := configx.MustNew[server.Config]("HTTP")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	dirCfg := configx.MustNew[workforcex.SQLConfig]("DIRECTORY")
	recordsCfg := configx.MustNew[records.Config]("RECORDS")

	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	prompts, err := promptx.LoadPromptSet()
	if err != nil {
		log.Fatal().Err(err).Msg("load prompts")
	}

	orCfg := llmCfg.OpenRouter()
	if llmCfg.VerifyModel {
		if err := openrouterx.VerifyModel(ctx, orCfg); err != nil {
			log.Fatal().Err(err).Str("model", orCfg.Model).Msg("model verification failed")
		}
	}
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}
	decider, err := receptionist.New(chatModel, prompts.Receptionist)
	if err != nil {
		log.Fatal().Err(err).Msg("create receptionist")
	}

	directory, closeDirectory, err := openDirectory(ctx, *dirCfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", dirCfg.Driver).Msg("open worker directory")
	}
	defer closeDirectory()

	store, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("open session store")
	}

	sink, closeSink, err := openSink(*recordsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open record sink")
	}
	defer closeSink()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch, err := orchestrator.New(orchestrator.Deps{
		Store:     store,
		Decider:   decider,
		Directory: directory,
		Sink:      sink,
		Metrics:   orchestrator.NewMetrics(reg),
	}, orchestrator.Config{
		Greeting:     prompts.Greeting,
		MaxToolSteps: llmCfg.MaxToolSteps,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator")
	}

	if err := server.New(*serverCfg, orch, reg).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
	log.Info().Msg("bye")
}

func openDirectory(ctx context.Context, cfg workforcex.SQLConfig) (workforcex.Directory, func(), error) {
	opts := []workforcex.Option{workforcex.WithConsumeOnBook(cfg.ConsumeOnBook)}

	if strings.EqualFold(strings.TrimSpace(cfg.Driver), "memory") || strings.TrimSpace(cfg.Driver) == "" {
		dir, err := workforcex.NewInMemoryDirectory(workforcex.DefaultWorkers(), opts...)
		return dir, func() {}, err
	}

	db, err := workforcex.OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("close directory db")
		}
	}

	dir, err := workforcex.NewSQLDirectory(db, opts...)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := dir.CreateSchema(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	if cfg.Seed {
		seeded, err := dir.Seed(ctx, workforcex.DefaultWorkers())
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		log.Info().Bool("seeded", seeded).Msg("worker directory ready")
	}
	return dir, closeDB, nil
}

func openStore() (statex.Store, error) {
	redisCfg, err := configx.NewIfSet[statex.UpstashRedisConfig]("UPSTASH_REDIS", "UPSTASH_REDIS_URL")
	if err != nil {
		return nil, err
	}
	if redisCfg == nil {
		log.Info().Msg("UPSTASH_REDIS_URL not set, keeping snapshots in memory")
		return statex.NewMemoryStore(), nil
	}
	return statex.NewUpstashRedisStore(*redisCfg)
}

func openSink(cfg records.Config) (contractx.RecordSink, func(), error) {
	var sinks []contractx.RecordSink
	closers := []func() error{}

	if strings.TrimSpace(cfg.File) != "" {
		jsonl, err := records.NewJSONLSink(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, jsonl)
		closers = append(closers, jsonl.Close)
	}

	if strings.TrimSpace(cfg.QStashDestination) != "" {
		qCfg, err := configx.NewIfSet[qstashx.Config]("QSTASH", "QSTASH_TOKEN")
		if err != nil {
			return nil, nil, err
		}
		if qCfg == nil {
			log.Warn().Msg("RECORDS_QSTASH_DESTINATION set without QSTASH_TOKEN, skipping qstash sink")
		} else {
			client, err := qstashx.NewClient(*qCfg)
			if err != nil {
				return nil, nil, err
			}
			q, err := records.NewQStashSink(client, cfg.QStashDestination)
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, q)
		}
	}

	if len(sinks) == 0 {
		log.Warn().Msg("no record sink configured, call records are discarded")
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("close record sink")
			}
		}
	}
	return records.NewMultiSink(sinks...), closeAll, nil
}
