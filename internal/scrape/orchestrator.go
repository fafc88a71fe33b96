package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
	"github.com/rodrigocabraln/bank-scraper/internal/log"
)

// Orchestrator runs every configured source and assembles one Snapshot per
// invocation. It is stateless: persistence is an explicit step by the caller.
type Orchestrator struct {
	registry      *Registry
	env           *Env
	loc           *time.Location
	sourceTimeout time.Duration
	logger        *log.Logger
}

// NewOrchestrator wires the orchestrator. sourceTimeout bounds each single
// source attempt; zero means no per-source deadline.
func NewOrchestrator(registry *Registry, env *Env, loc *time.Location, sourceTimeout time.Duration, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Orchestrator{
		registry:      registry,
		env:           env,
		loc:           loc,
		sourceTimeout: sourceTimeout,
		logger:        logger.WithComponent(log.ComponentScrape),
	}
}

// RunAll invokes each source id in order and returns the aggregate snapshot.
// A failing source is recorded as an error entry and never aborts the
// remaining sources. Sources run sequentially: each typically owns an
// exclusive automation resource.
func (o *Orchestrator) RunAll(ctx context.Context, ids []string) core.Snapshot {
	snap := core.NewSnapshot(time.Now().In(o.loc))

	for _, id := range ids {
		start := time.Now()
		result := o.runOne(ctx, id)
		if result.Failed() {
			o.logger.Error("Source scrape failed", log.FieldSource, id, log.FieldError, result.Error, log.FieldDuration, time.Since(start).Milliseconds())
		} else {
			o.logger.Info("Source scrape complete", log.FieldSource, id, log.FieldAccounts, len(result.Accounts), log.FieldDuration, time.Since(start).Milliseconds())
		}
		snap.Banks[id] = result
	}

	return snap
}

// runOne executes a single source, converting every failure mode (unknown
// id, timeout, returned error, panic) into an error result. A successful
// result without its own timestamp is stamped with the current local time.
func (o *Orchestrator) runOne(ctx context.Context, id string) (result core.SourceResult) {
	src, ok := o.registry.Lookup(id)
	if !ok {
		return core.NewSourceError(fmt.Sprintf("unknown source %q: not registered", id))
	}

	if o.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.sourceTimeout)
		defer cancel()
	}

	// A collaborator drives external automation; a panic there must degrade
	// to an error entry, not take down the run.
	defer func() {
		if r := recover(); r != nil {
			result = core.NewSourceError(fmt.Sprintf("source %s panicked: %v", id, r))
		}
	}()

	report, err := src.Fetch(ctx, o.env)
	if err != nil {
		return core.NewSourceError(fmt.Sprintf("source %s failed: %v", id, err))
	}
	if report.Failed() {
		return core.NewSourceError(report.Error)
	}
	if report.UpdatedAt == "" {
		report.UpdatedAt = core.NowISO(o.loc)
	}

	return o.applyLogos(src, report)
}

// applyLogos fills in the source-level default logo and propagates it to
// accounts that do not carry their own.
func (o *Orchestrator) applyLogos(src Source, report core.SourceResult) core.SourceResult {
	logo := src.DefaultLogo()
	if report.Logo == "" {
		report.Logo = logo
	}
	for i := range report.Accounts {
		if report.Accounts[i].Logo == "" {
			report.Accounts[i].Logo = report.Logo
		}
	}
	return report
}
