package model

import (
	"strings"
	"time"
)

// EnrichmentStatus is the persisted outcome of the most recent
// enrichment attempt for a facility.
type EnrichmentStatus string

const (
	StatusPending  EnrichmentStatus = "pending"
	StatusEnriched EnrichmentStatus = "enriched"
	StatusPartial  EnrichmentStatus = "partial"
	StatusFailed   EnrichmentStatus = "failed"
)

// Facility is one medical facility row from the store.
type Facility struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Website          string     `json:"website"`
	City             string     `json:"city,omitempty"`
	Country          string     `json:"country,omitempty"`
	EnrichmentStatus string     `json:"enrichment_status,omitempty"`
	LastAttempt      *time.Time `json:"enrichment_last_attempt,omitempty"`
}

// BaseURL returns the facility website without a trailing slash, so
// candidate path suffixes can be appended directly.
func (f Facility) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(f.Website), "/")
}

// ExtractionTarget pairs a facility with the candidate URL suffixes to
// probe for each entity kind, in priority order.
type ExtractionTarget struct {
	Facility Facility
	Paths    map[EntityKind][]string
}

// URLs expands the candidate suffixes for kind into absolute URLs. An
// empty suffix means the homepage.
func (t ExtractionTarget) URLs(kind EntityKind) []string {
	base := t.Facility.BaseURL()
	if base == "" {
		return nil
	}
	suffixes := t.Paths[kind]
	urls := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s == "" {
			urls = append(urls, base)
			continue
		}
		urls = append(urls, base+"/"+strings.TrimLeft(s, "/"))
	}
	return urls
}
