// Package pipeline runs facility enrichment end to end: candidate URL
// probing, the extraction strategy chain, normalization, confidence
// classification, and persistence, plus the batch orchestration and
// checkpointing around it.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/normalize"
	"github.com/oasara/enrich-cli/internal/strategy"
)

// Pipeline enriches a single facility. Safe for concurrent use by the
// orchestrator's workers as long as the fetcher and strategies are.
type Pipeline struct {
	fetcher      fetch.Fetcher
	chain        *strategy.Chain
	vision       *strategy.Vision
	visionAlways bool
	persist      *Adapter
	threshold    int
}

// New creates a pipeline without vision. Threshold is the inclusive
// item count at which a run counts as a full success.
func New(fetcher fetch.Fetcher, chain *strategy.Chain, persist *Adapter, threshold int) *Pipeline {
	if threshold <= 0 {
		threshold = normalize.DefaultSuccessThreshold
	}
	return &Pipeline{
		fetcher:   fetcher,
		chain:     chain,
		persist:   persist,
		threshold: threshold,
	}
}

// WithVision enables the vision fallback. When always is set, vision
// runs for every facility instead of only when the cheaper strategies
// came up empty.
func (p *Pipeline) WithVision(v *strategy.Vision, always bool) *Pipeline {
	p.vision = v
	p.visionAlways = always
	return p
}

// Run enriches one facility through the full lifecycle. It never
// returns an error: everything that goes wrong is recorded on the
// result, so one broken site cannot sink a batch.
func (p *Pipeline) Run(ctx context.Context, facility model.Facility) *model.RunResult {
	log := zap.L().With(zap.String("facility", facility.Name), zap.String("website", facility.Website))
	log.Info("pipeline: enriching facility")

	result := &model.RunResult{
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		Country:      facility.Country,
		Website:      facility.Website,
		Stage:        model.StagePending,
		Status:       model.RunFailed,
	}

	if facility.BaseURL() == "" {
		result.Stage = model.StageFailed
		result.Errors = append(result.Errors, "facility has no website")
		return result
	}

	result.Stage = model.StageFetching
	fragments, fetchedAny := p.collect(ctx, facility, result, log)

	if !fetchedAny {
		result.Stage = model.StageFailed
		result.Errors = append(result.Errors, "all page fetches failed")
		log.Warn("pipeline: no page could be fetched")
		return result
	}

	if p.vision != nil && (p.visionAlways || len(fragments) == 0) {
		visionFrags, err := p.vision.ExtractFacility(ctx, facility)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("vision: %s", err))
			log.Warn("pipeline: vision extraction failed", zap.Error(err))
		} else {
			fragments = append(fragments, visionFrags...)
		}
	}

	result.Stage = model.StageClassifying
	entities := normalize.Normalize(fragments, facility.ID)
	result.Doctors = len(entities.Doctors)
	result.Prices = len(entities.Prices)
	result.Testimonials = len(entities.Testimonials)
	result.Packages = len(entities.Packages)
	result.TotalItems = entities.Total()
	result.Status = normalize.Classify(entities.Total(), p.threshold)

	result.Stage = model.StagePersisted
	p.persist.Persist(ctx, facility, entities, result.Status, result)

	result.Stage = model.StageDone
	log.Info("pipeline: facility done",
		zap.String("status", string(result.Status)),
		zap.Int("items", result.TotalItems),
	)
	return result
}

// collect probes the candidate URLs per kind and runs the strategy
// chain over each rendered page. The first path that yields fragments
// for a kind ends that kind's search. Pages are fetched at most once
// even when several kinds share a candidate URL.
func (p *Pipeline) collect(ctx context.Context, facility model.Facility, result *model.RunResult, log *zap.Logger) ([]model.RawFragment, bool) {
	target := NewTarget(facility)

	snapshots := map[string]*fetch.PageSnapshot{}
	failed := map[string]bool{}
	fetchedAny := false

	var fragments []model.RawFragment
	for _, kind := range model.Kinds {
		result.Stage = model.StageExtracting
		for _, url := range target.URLs(kind) {
			if ctx.Err() != nil {
				result.Errors = append(result.Errors, ctx.Err().Error())
				return fragments, fetchedAny
			}
			if failed[url] {
				continue
			}

			snap, ok := snapshots[url]
			if !ok {
				var err error
				snap, err = p.fetcher.Fetch(ctx, url, fetch.ModeBrowser)
				if err != nil {
					failed[url] = true
					log.Debug("pipeline: fetch failed", zap.String("url", url), zap.Error(err))
					continue
				}
				snapshots[url] = snap
				fetchedAny = true
			}

			frags := p.chain.Extract(ctx, snap, kind)
			if len(frags) > 0 {
				fragments = append(fragments, frags...)
				break
			}
		}
	}
	return fragments, fetchedAny
}
