package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/model"
	"github.com/oasara/enrich-cli/internal/normalize"
	"github.com/oasara/enrich-cli/internal/store"
)

// Adapter writes normalized entities to the store. With skipWrite set
// it goes through the motions but touches nothing, which backs the
// --test flag.
type Adapter struct {
	store     store.Store
	skipWrite bool
}

// NewAdapter creates a persistence adapter.
func NewAdapter(st store.Store, skipWrite bool) *Adapter {
	return &Adapter{store: st, skipWrite: skipWrite}
}

// Persist writes the entity set and records the facility's new
// enrichment status. Per-kind inserts are independent: one kind
// failing does not stop the others, the errors are collected into the
// result instead.
func (a *Adapter) Persist(ctx context.Context, facility model.Facility, entities model.EntitySet, status model.RunStatus, result *model.RunResult) {
	if a.skipWrite {
		zap.L().Info("persist: skipped (test mode)",
			zap.String("facility", facility.Name),
			zap.Int("items", entities.Total()),
		)
		return
	}

	if err := a.store.InsertDoctors(ctx, entities.Doctors); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if err := a.store.InsertPrices(ctx, entities.Prices); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if err := a.store.InsertTestimonials(ctx, entities.Testimonials); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if err := a.store.InsertPackages(ctx, entities.Packages); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	if err := a.store.UpdateEnrichmentStatus(ctx, facility.ID, normalize.StatusFor(status)); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
}
