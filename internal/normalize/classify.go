package normalize

import "github.com/oasara/enrich-cli/internal/model"

// DefaultSuccessThreshold is the item count at which a run counts as a
// full success.
const DefaultSuccessThreshold = 10

// Classify maps an extracted item count to a run status. Zero items is
// a failure; anything below threshold is partial.
func Classify(total, threshold int) model.RunStatus {
	if threshold <= 0 {
		threshold = DefaultSuccessThreshold
	}
	switch {
	case total <= 0:
		return model.RunFailed
	case total >= threshold:
		return model.RunSuccess
	default:
		return model.RunPartial
	}
}

// StatusFor maps a run status to the enrichment status persisted on
// the facility row.
func StatusFor(status model.RunStatus) model.EnrichmentStatus {
	switch status {
	case model.RunSuccess:
		return model.StatusEnriched
	case model.RunPartial:
		return model.StatusPartial
	default:
		return model.StatusFailed
	}
}
