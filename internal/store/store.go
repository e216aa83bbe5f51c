// Package store persists facilities and their extracted entities.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oasara/enrich-cli/internal/model"
)

// FacilityFilter selects facilities for an enrichment run.
type FacilityFilter struct {
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Facilities
	ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error)
	// FindFacilityByName matches by case-insensitive name substring.
	FindFacilityByName(ctx context.Context, name string) (*model.Facility, error)
	UpdateEnrichmentStatus(ctx context.Context, facilityID string, status model.EnrichmentStatus) error
	CountByStatus(ctx context.Context) (map[string]int, error)

	// Extracted entities
	InsertDoctors(ctx context.Context, doctors []model.Doctor) error
	InsertPrices(ctx context.Context, prices []model.PriceEntry) error
	InsertTestimonials(ctx context.Context, testimonials []model.Testimonial) error
	InsertPackages(ctx context.Context, packages []model.Package) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// IsUniqueViolation reports whether err is a unique-constraint error.
// Re-inserting an entity an earlier run already stored is benign.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// modernc.org/sqlite surfaces constraint errors without a typed code.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
