package main

import (
	"token-monitor/internal/config"
	"token-monitor/internal/logger"
	"token-monitor/internal/models"
	"token-monitor/internal/timefmt"
)

// watchlist returns the monitored addresses per chain in polling order
func watchlist(cfg *config.Config) []chainAddresses {
	return []chainAddresses{
		{chain: models.Solana, addresses: cfg.Solana.Addresses},
		{chain: models.Ethereum, addresses: cfg.Ethereum.Addresses},
	}
}

type chainAddresses struct {
	chain     models.BlockchainName
	addresses []string
}

func logStartupBanner(cfg *config.Config) {
	log := logger.GetLogger()
	log.Info().Msg("Starting token creation monitor")

	for _, entry := range watchlist(cfg) {
		if len(entry.addresses) == 0 {
			log.Warn().Str("chain", entry.chain.String()).Msg("No addresses configured")
			continue
		}
		for _, addr := range entry.addresses {
			log.Info().
				Str("chain", entry.chain.String()).
				Str("address", addr).
				Msg("Monitoring address")
		}
	}

	log.Info().
		Dur("interval", cfg.MonitoringInterval).
		Str("startedAt", timefmt.CurrentTime()).
		Msg("Monitor started")
}
