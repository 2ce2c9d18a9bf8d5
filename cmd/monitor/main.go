package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-monitor/internal/config"
	"token-monitor/internal/database"
	"token-monitor/internal/emitters"
	"token-monitor/internal/events"
	"token-monitor/internal/health"
	"token-monitor/internal/interfaces"
	"token-monitor/internal/logger"
	"token-monitor/internal/models"
	"token-monitor/internal/monitors"
	"token-monitor/internal/monitors/evm"
	"token-monitor/internal/monitors/solana"
	"token-monitor/internal/observability"
	"token-monitor/internal/orchestrator"
	"token-monitor/internal/rpc"
)

// handlePanic logs a panic that escaped the monitoring loop and exits non-zero
func handlePanic(exit func(int)) {
	if r := recover(); r != nil {
		logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked")
		exit(1)
	}
}

func main() {
	defer handlePanic(os.Exit)

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.GetLogger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []interfaces.EventEmitter

	if cfg.Kafka.Enabled {
		kafkaEmitter := emitters.NewKafkaEmitter(cfg.Kafka, log)
		defer kafkaEmitter.Close()
		sinks = append(sinks, kafkaEmitter)
	}

	if cfg.Database.Enabled {
		store, err := database.Open(cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		sinks = append(sinks, store)
	}

	emitter := events.NewPrintEmitter(os.Stdout, log, sinks...)
	metrics := observability.NewMetrics()
	registry := health.NewRegistry()

	solanaLog := logger.Chain(models.Solana.String())
	solanaClient, err := solana.Dial(ctx, cfg.Solana.RpcEndpoint,
		rpc.NewHTTPClient("", cfg.Solana.RateLimit, cfg.HTTP.Timeout, solanaLog))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Solana RPC")
	}

	ethLog := logger.Chain(models.Ethereum.String())
	ethClient, err := evm.Dial(ctx, cfg.Ethereum.RpcEndpoint,
		rpc.NewHTTPClient(cfg.Ethereum.BearerToken(), cfg.Ethereum.RateLimit, cfg.HTTP.Timeout, ethLog))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Ethereum RPC")
	}
	defer ethClient.Close()

	chainMonitors := []interfaces.ChainMonitor{
		solana.NewSolanaMonitor(
			monitors.NewBaseMonitor(models.Solana, cfg.Solana.Addresses, cfg.Solana.ExplorerBaseURL, solanaLog, emitter, metrics),
			solanaClient,
			solana.Config{
				TxLimit:           cfg.Solana.TxLimit,
				TokenProgramID:    cfg.Solana.TokenProgramID,
				MetadataProgramID: cfg.Solana.MetadataProgramID,
			},
		),
		evm.NewEthereumMonitor(
			monitors.NewBaseMonitor(models.Ethereum, cfg.Ethereum.Addresses, cfg.Ethereum.ExplorerBaseURL, ethLog, emitter, metrics),
			ethClient,
			evm.Config{
				BlocksToScan:    uint64(cfg.Ethereum.BlocksToScan),
				EventSignatures: cfg.Ethereum.EventSignatures,
			},
		),
	}

	if cfg.Health.Addr != "" {
		srv := health.NewServer(cfg.Health.Addr, registry, metrics.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.Health.Addr).Msg("Health server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logStartupBanner(cfg)

	err = orchestrator.New(chainMonitors, cfg.MonitoringInterval, log, registry, metrics).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Monitoring loop stopped")
		return
	}
	log.Info().Msg("Shutting down")
}
