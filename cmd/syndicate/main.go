// Command syndicate wires the Banking Syndicate Core's divisions,
// validation protocol, credit engine, coordinator, and agentic commerce
// into a single running process: config → logger → ledger/advisor/
// sanctions → Syndicate façade → background maintenance loops → demo
// onboarding, with OS-signal-driven graceful shutdown. There is no HTTP
// or CLI surface here — the concrete transport a deployment puts in
// front of the Syndicate is out of scope.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/divisions"
	"github.com/banksyndicate/core/internal/logging"
	"github.com/banksyndicate/core/internal/ports"
	"github.com/banksyndicate/core/internal/syndicate"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("banking syndicate core starting")

	persister, err := newPersister(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis persister init failed — continuing with an in-memory persister")
		persister = ports.NewMemoryPersister()
	} else if cfg.RedisURL != "" {
		log.Info().Msg("redis persister connected")
	}

	clock := ports.SystemClock{}
	ledger := ports.NewSimulatedLedger(clock, cfg.ChainID)
	advisor := ports.NewRuleBasedAdvisor()
	sanctions := ports.NewStaticSanctionsOracle()
	blacklist := divisions.NewBlacklist()

	core := syndicate.New(cfg, log, clock, ledger, advisor, sanctions, blacklist, persister)

	seedDemoAgents(core, log)

	batchSweeper := time.NewTicker(batchSweepInterval(cfg))
	billingSweeper := time.NewTicker(cfg.BillingCycle)
	defer batchSweeper.Stop()
	defer billingSweeper.Stop()

	stop := make(chan struct{})
	go runMaintenanceLoops(core, log, batchSweeper, billingSweeper, stop)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	log.Info().Msg("banking syndicate core running")
	<-done
	log.Info().Msg("shutdown signal received")

	close(stop)
	log.Info().Msg("banking syndicate core stopped")
}

// newPersister wires a RedisPersister when SYNDICATE_REDIS_URL is set,
// mirroring the teacher's "continue without Redis" posture rather than
// failing startup over an optional dependency.
func newPersister(cfg *config.Config) (ports.Persister, error) {
	if cfg.RedisURL == "" {
		return ports.NewMemoryPersister(), nil
	}
	return ports.NewRedisPersister(cfg.RedisURL)
}

// batchSweepInterval runs the micropayment batch sweep four times per
// BATCH_TIMEOUT window, so a stale batch is never more than a quarter
// of the timeout late being noticed.
func batchSweepInterval(cfg *config.Config) time.Duration {
	interval := cfg.BatchTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func runMaintenanceLoops(core *syndicate.Syndicate, log zerolog.Logger, batchSweeper, billingSweeper *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-batchSweeper.C:
			if evals := core.SweepExpiredBatches(context.Background()); len(evals) > 0 {
				log.Info().Int("flushed", len(evals)).Msg("swept expired micropayment batches")
			}
		case <-billingSweeper.C:
			if billed := core.RunBillingCycle(context.Background(), false); len(billed) > 0 {
				log.Info().Int("billed", len(billed)).Msg("ran usage billing cycle")
			}
		}
	}
}

// seedDemoAgents onboards a handful of agents so a freshly started
// process has something for the maintenance loops and a manual
// inspection of GetSyndicateStatus to act on; this is wiring, not a
// feature — no transport exposes it to a caller.
func seedDemoAgents(core *syndicate.Syndicate, log zerolog.Logger) {
	demo := []struct {
		id      string
		deposit float64
	}{
		{"agent-treasury-desk", 5000},
		{"agent-market-maker", 2500},
	}

	for _, d := range demo {
		if _, err := core.OnboardAgent(context.Background(), d.id, d.deposit, map[string]any{"seeded": true}); err != nil {
			log.Warn().Err(err).Str("agent_id", d.id).Msg("demo onboarding failed")
			continue
		}
		log.Info().Str("agent_id", d.id).Float64("deposit", d.deposit).Msg("onboarded demo agent")
	}
}
