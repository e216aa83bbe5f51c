package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasara/enrich-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestListFacilities(t *testing.T) {
	store, mock := newMockStore(t)

	attempt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "website", "city", "country", "enrichment_status", "enrichment_last_attempt"}).
		AddRow("f1", "Bangkok Heart Clinic", ptr("https://bkkheart.example"), ptr("Bangkok"), ptr("Thailand"), "pending", &attempt).
		AddRow("f2", "Phuket Dental", ptr("https://phuketdental.example"), (*string)(nil), ptr("Thailand"), "enriched", (*time.Time)(nil))

	mock.ExpectQuery(`SELECT .+ FROM facilities WHERE website IS NOT NULL`).
		WithArgs("Thailand", 10).
		WillReturnRows(rows)

	got, err := store.ListFacilities(context.Background(), FacilityFilter{Country: "Thailand", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bangkok Heart Clinic", got[0].Name)
	assert.Equal(t, "https://bkkheart.example", got[0].Website)
	assert.NotNil(t, got[0].LastAttempt)
	assert.Empty(t, got[1].City)
	assert.Nil(t, got[1].LastAttempt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFacilitiesNoFilter(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM facilities WHERE website IS NOT NULL`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "website", "city", "country", "enrichment_status", "enrichment_last_attempt"}))

	got, err := store.ListFacilities(context.Background(), FacilityFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFacilityByName(t *testing.T) {
	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "name", "website", "city", "country", "enrichment_status", "enrichment_last_attempt"}).
		AddRow("f1", "Apollo Hospital", ptr("https://apollo.example"), ptr("Chennai"), ptr("India"), "pending", (*time.Time)(nil))

	mock.ExpectQuery(`SELECT .+ FROM facilities WHERE name ILIKE '%' \|\| \$1 \|\| '%'`).
		WithArgs("apollo").
		WillReturnRows(rows)

	got, err := store.FindFacilityByName(context.Background(), "apollo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "f1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFacilityByNameNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM facilities WHERE name ILIKE`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.FindFacilityByName(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEnrichmentStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE facilities SET enrichment_status`).
		WithArgs("enriched", pgxmock.AnyArg(), "f1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateEnrichmentStatus(context.Background(), "f1", model.StatusEnriched)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEnrichmentStatusMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE facilities SET enrichment_status`).
		WithArgs("failed", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateEnrichmentStatus(context.Background(), "ghost", model.StatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facility not found")
}

func TestCountByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"enrichment_status", "count"}).
		AddRow("pending", 12).
		AddRow("enriched", 5).
		AddRow("failed", 2)

	mock.ExpectQuery(`SELECT enrichment_status, COUNT\(\*\) FROM facilities`).
		WillReturnRows(rows)

	counts, err := store.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pending": 12, "enriched": 5, "failed": 2}, counts)
}

func TestInsertDoctorsSkipsDuplicates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO doctors`).
		WithArgs(pgxmock.AnyArg(), "f1", "Jane Smith", "Cardiology", "MD", "", "structural").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec(`INSERT INTO doctors`).
		WithArgs(pgxmock.AnyArg(), "f1", "John Doe", "", "", "", "structural").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.InsertDoctors(context.Background(), []model.Doctor{
		{FacilityID: "f1", Name: "Jane Smith", Specialty: "Cardiology", Qualifications: "MD", Source: "structural"},
		{FacilityID: "f1", Name: "John Doe", Source: "structural"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPricesRangeMax(t *testing.T) {
	store, mock := newMockStore(t)

	max := 12000.0
	mock.ExpectExec(`INSERT INTO procedure_pricing`).
		WithArgs(pgxmock.AnyArg(), "f1", "Hip Replacement", 8000.0, "USD", model.PriceRange, &max, "textpattern").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO procedure_pricing`).
		WithArgs(pgxmock.AnyArg(), "f1", "LASIK", 1200.0, "USD", model.PriceStartingFrom, (*float64)(nil), "textpattern").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.InsertPrices(context.Background(), []model.PriceEntry{
		{FacilityID: "f1", Procedure: "Hip Replacement", Amount: 8000, Currency: "USD", PriceType: model.PriceRange, RangeMax: 12000, Source: "textpattern"},
		{FacilityID: "f1", Procedure: "LASIK", Amount: 1200, Currency: "USD", PriceType: model.PriceStartingFrom, Source: "textpattern"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTestimonialsCopy(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"testimonials"},
		[]string{"id", "facility_id", "author", "text", "rating", "source"}).
		WillReturnResult(2)

	rating := 4.5
	err := store.InsertTestimonials(context.Background(), []model.Testimonial{
		{FacilityID: "f1", Author: "Maria", Text: "Wonderful care from start to finish.", Rating: &rating, Source: "structural"},
		{FacilityID: "f1", Author: "Anonymous", Text: "The staff spoke excellent English and the recovery suite was spotless.", Source: "vision"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTestimonialsEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.InsertTestimonials(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPackages(t *testing.T) {
	store, mock := newMockStore(t)

	price := 4500.0
	mock.ExpectExec(`INSERT INTO facility_packages`).
		WithArgs(pgxmock.AnyArg(), "f1", "Dental Implant Package", "Full arch restoration with hotel stay", &price, "Consultation, Surgery, Accommodation", "structural").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.InsertPackages(context.Background(), []model.Package{
		{FacilityID: "f1", Name: "Dental Implant Package", Description: "Full arch restoration with hotel stay", Price: &price, IncludedServices: "Consultation, Surgery, Accommodation", Source: "structural"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(assertErr("constraint failed: UNIQUE constraint failed: doctors.facility_id, doctors.name")))
	assert.False(t, IsUniqueViolation(nil))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func ptr(s string) *string { return &s }
