package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"token-monitor/internal/health"
	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"
	"token-monitor/internal/observability"
	"token-monitor/internal/timefmt"

	"github.com/rs/zerolog"
)

// Orchestrator drives every chain monitor on a fixed interval
type Orchestrator struct {
	monitors []interfaces.ChainMonitor
	interval time.Duration
	logger   *zerolog.Logger
	health   *health.Registry
	metrics  *observability.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(monitors []interfaces.ChainMonitor, interval time.Duration, logger *zerolog.Logger, registry *health.Registry, metrics *observability.Metrics) *Orchestrator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Orchestrator{
		monitors: monitors,
		interval: interval,
		logger:   logger,
		health:   registry,
		metrics:  metrics,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run polls the monitors in order, then waits for the interval, until ctx is
// cancelled. Monitor failures never end the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		o.RunCycle(ctx, iteration)

		if err := o.sleep(ctx, o.interval); err != nil {
			return err
		}
	}
}

// RunCycle polls every monitor once
func (o *Orchestrator) RunCycle(ctx context.Context, iteration int) {
	o.logger.Info().Msgf("MONITORING ITERATION %d | %s", iteration, timefmt.CurrentTime())

	for _, monitor := range o.monitors {
		if ctx.Err() != nil {
			return
		}
		o.poll(ctx, monitor)
	}

	o.metrics.ObserveCycle()
	if o.health != nil {
		o.health.SetReady(true)
	}
}

func (o *Orchestrator) poll(ctx context.Context, monitor interfaces.ChainMonitor) {
	chain := monitor.GetChainName().String()
	start := o.now()

	stats, err := safePoll(ctx, monitor)
	elapsed := o.now().Sub(start)

	if err != nil && ctx.Err() == nil {
		o.logger.Error().
			Err(err).
			Str("chain", chain).
			Msg("Chain poll failed")
	}

	known := monitor.KnownTransactions()
	o.logger.Info().
		Str("chain", chain).
		Int("units", stats.Units).
		Int("seen", stats.Seen).
		Int("new", stats.New).
		Int("reports", stats.Reports).
		Int("errors", stats.Errors).
		Int("known", known).
		Dur("elapsed", elapsed).
		Msg("Chain poll completed")

	o.metrics.ObservePoll(chain, elapsed)
	o.metrics.SetKnownTransactions(chain, known)
	if o.health != nil {
		o.health.UpdateChainStatus(chain, o.now(), known, stats, err)
	}
}

// safePoll converts a panic inside a monitor into an error
func safePoll(ctx context.Context, monitor interfaces.ChainMonitor) (stats models.CycleStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("monitor panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return monitor.PollOnce(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
