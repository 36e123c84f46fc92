package engine

// scan.go — the scan loop: pull snapshots, fan evaluation out over a worker
// pool, store and rank results, and auto-execute the best candidate when the
// execution mode allows it.

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// scanCycle runs one full scan across all enabled networks.
func (s *Scheduler) scanCycle(ctx context.Context) {
	start := time.Now()
	found := 0

	for _, network := range s.cfg.Networks {
		snaps, err := s.markets.Snapshots(ctx, network)
		if err != nil {
			slog.Warn("snapshot fetch failed", "network", network, "err", err)
			continue
		}

		opps := s.evaluateConcurrent(ctx, snaps)
		for _, opp := range opps {
			s.store.Put(opp)
			found++
			s.events.Publish(Event{
				Kind:        EventOpportunityFound,
				Message:     opp.Reasoning,
				Opportunity: &opp,
			})
			slog.Debug("opportunity found",
				"strategy", opp.Strategy,
				"token", opp.Token,
				"network", opp.Network,
				"signal", opp.Signal,
				"confidence", opp.Confidence,
				"expected_profit", opp.ExpectedProfit,
			)
		}
	}

	now := time.Now().UTC()
	if swept := s.store.SweepExpired(now); swept > 0 {
		slog.Debug("swept expired opportunities", "count", swept)
	}

	active := s.store.ListActive(ListFilter{}, now)
	if s.notifier != nil {
		if err := s.notifier.NotifyOpportunities(ctx, active); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	s.autoExecute(ctx, active)

	slog.Info("scan cycle complete",
		"new", found,
		"active", len(active),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// evaluateConcurrent runs every evaluator over every snapshot on a worker
// pool. Workers drain a shared channel; results funnel into one slice.
func (s *Scheduler) evaluateConcurrent(ctx context.Context, snaps []domain.MarketSnapshot) []domain.Opportunity {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	workCh := make(chan domain.MarketSnapshot, len(snaps))
	resultCh := make(chan domain.Opportunity, len(snaps)*len(s.evaluators))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range workCh {
				if ctx.Err() != nil {
					return
				}
				for _, ev := range s.evaluators {
					if opp, ok := ev.Evaluate(snap); ok {
						resultCh <- opp
					}
				}
			}
		}()
	}

	for _, snap := range snaps {
		workCh <- snap
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var opps []domain.Opportunity
	for opp := range resultCh {
		opps = append(opps, opp)
	}
	return opps
}

// autoExecute fires the highest-scored candidate through the coordinator.
// Backpressure: when the position cap is reached the opportunity stays in
// the store for visibility but is not executed.
func (s *Scheduler) autoExecute(ctx context.Context, ranked []domain.Opportunity) {
	if !s.mode.AutoExecutes() || len(ranked) == 0 {
		return
	}

	session, err := s.sessions.Get(s.sessionID)
	if err != nil {
		slog.Warn("auto-execute: session lookup failed", "err", err)
		return
	}
	if s.positions.Count() >= session.Limits.MaxConcurrentPositions {
		slog.Debug("auto-execute skipped: position cap reached",
			"open", s.positions.Count(), "cap", session.Limits.MaxConcurrentPositions)
		return
	}

	best := ranked[0]
	_, err = s.coord.TryExecute(ctx, best.ID, s.sessionID, 0)
	if err == nil {
		return
	}

	var violation *domain.RiskViolation
	switch {
	case errors.As(err, &violation):
		slog.Debug("auto-execute rejected", "rule", violation.Rule, "msg", violation.Message)
	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrOpportunityExpired),
		errors.Is(err, domain.ErrOpportunityNotFound):
		slog.Debug("auto-execute lost the claim", "opportunity", best.ID, "err", err)
	default:
		slog.Warn("auto-execute failed", "opportunity", best.ID, "err", err)
	}
}
