/**
 * @description
 * Cron-driven upkeep for the settlement engine. Each tick walks the asset
 * set, re-checks reserve attestations for verified assets (auto-pausing the
 * ones whose attestation fails), and flushes rent pools whose distribution
 * period has elapsed.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/robfig/cron/v3"
)

const upkeepRunTimeout = 5 * time.Minute

// Upkeep schedules and runs the periodic maintenance pass.
type Upkeep struct {
	cron     *cron.Cron
	service  *Service
	schedule string
}

// NewUpkeep creates the upkeep scheduler with the given cron expression.
func NewUpkeep(service *Service, schedule string) *Upkeep {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default()))))
	return &Upkeep{
		cron:     c,
		service:  service,
		schedule: schedule,
	}
}

// Start registers and starts the upkeep job.
func (u *Upkeep) Start() {
	if _, err := u.cron.AddFunc(u.schedule, u.runScheduled); err != nil {
		log.Printf("level=error component=upkeep msg=\"failed to schedule upkeep job\" schedule=%q err=%v", u.schedule, err)
		return
	}
	log.Printf("level=info component=upkeep msg=\"scheduled upkeep job\" schedule=%q", u.schedule)
	u.cron.Start()
}

// Stop gracefully stops the scheduler and returns a context that is done once
// running jobs finish.
func (u *Upkeep) Stop() context.Context {
	return u.cron.Stop()
}

func (u *Upkeep) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), upkeepRunTimeout)
	defer cancel()
	u.RunOnce(ctx)
}

// RunOnce performs a single upkeep pass over all assets.
func (u *Upkeep) RunOnce(ctx context.Context) {
	assets, err := u.service.ListAssets(ctx, nil)
	if err != nil {
		log.Printf("level=error component=upkeep msg=\"failed to list assets\" err=%v", err)
		return
	}

	distributed := 0
	paused := 0
	for _, asset := range assets {
		if rechecked, err := u.service.RecheckReserves(ctx, asset.ID); err != nil {
			if errors.Is(err, store.ErrStaleData) {
				log.Printf("level=warn component=upkeep msg=\"reserve recheck skipped\" asset_id=%d err=%v", asset.ID, err)
			} else {
				log.Printf("level=error component=upkeep msg=\"reserve recheck failed\" asset_id=%d err=%v", asset.ID, err)
			}
		} else if rechecked.State != asset.State {
			paused++
		}

		due, err := u.service.CheckUpkeep(ctx, asset.ID)
		if err != nil {
			log.Printf("level=error component=upkeep msg=\"upkeep check failed\" asset_id=%d err=%v", asset.ID, err)
			continue
		}
		if !due {
			continue
		}
		result, err := u.service.Distribute(ctx, asset.ID)
		if err != nil {
			// A concurrent trigger may have flushed the pool first.
			if errors.Is(err, store.ErrNothingToDistribute) {
				continue
			}
			log.Printf("level=error component=upkeep msg=\"distribution failed\" asset_id=%d err=%v", asset.ID, err)
			continue
		}
		distributed++
		log.Printf("level=info component=upkeep msg=\"rent distributed\" asset_id=%d amount=%d holders=%d remainder=%d",
			asset.ID, result.Distributed, len(result.Payouts), result.Remainder)
	}
	log.Printf("level=info component=upkeep msg=\"upkeep pass complete\" assets=%d distributions=%d auto_paused=%d", len(assets), distributed, paused)
}
