// Package strategy provides chained extraction of facility data from
// page snapshots.
package strategy

import (
	"context"

	"github.com/oasara/enrich-cli/internal/fetch"
	"github.com/oasara/enrich-cli/internal/model"
)

// Strategy is one self-contained extraction algorithm. Strategies stay
// loose: they emit raw fragments and leave typed coercion to the
// normalizer.
type Strategy interface {
	// Name identifies the strategy in logs and fragment sources.
	Name() string
	// Extract pulls candidate fragments of one kind from a snapshot. A
	// nil slice with nil error means the strategy found nothing.
	Extract(ctx context.Context, snap *fetch.PageSnapshot, kind model.EntityKind) ([]model.RawFragment, error)
}
