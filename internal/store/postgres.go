package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/db"
	"github.com/oasara/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"update_enrichment_status": `UPDATE facilities SET enrichment_status = $1, enrichment_last_attempt = $2 WHERE id = $3`,
	"insert_doctor":            `INSERT INTO doctors (id, facility_id, name, specialty, qualifications, bio, source) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"insert_price":             `INSERT INTO procedure_pricing (id, facility_id, procedure_name, price, currency, price_type, price_max, source) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"insert_package":           `INSERT INTO facility_packages (id, facility_id, package_name, description, price, included_services, source) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool creates a PostgresStore over an existing pool,
// used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS facilities (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                    TEXT NOT NULL,
	website                 TEXT,
	city                    TEXT,
	country                 TEXT,
	enrichment_status       TEXT NOT NULL DEFAULT 'pending',
	enrichment_last_attempt TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS doctors (
	id             TEXT PRIMARY KEY,
	facility_id    TEXT NOT NULL REFERENCES facilities(id),
	name           TEXT NOT NULL,
	specialty      TEXT,
	qualifications TEXT,
	bio            TEXT,
	source         TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (facility_id, name)
);

CREATE TABLE IF NOT EXISTS procedure_pricing (
	id             TEXT PRIMARY KEY,
	facility_id    TEXT NOT NULL REFERENCES facilities(id),
	procedure_name TEXT NOT NULL,
	price          NUMERIC NOT NULL,
	currency       TEXT NOT NULL DEFAULT 'USD',
	price_type     TEXT NOT NULL DEFAULT 'starting_from',
	price_max      NUMERIC,
	source         TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (facility_id, procedure_name)
);

CREATE TABLE IF NOT EXISTS testimonials (
	id          TEXT PRIMARY KEY,
	facility_id TEXT NOT NULL REFERENCES facilities(id),
	author      TEXT,
	text        TEXT NOT NULL,
	rating      NUMERIC,
	source      TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS facility_packages (
	id                TEXT PRIMARY KEY,
	facility_id       TEXT NOT NULL REFERENCES facilities(id),
	package_name      TEXT NOT NULL,
	description       TEXT,
	price             NUMERIC,
	included_services TEXT,
	source            TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (facility_id, package_name)
);

CREATE INDEX IF NOT EXISTS idx_facilities_status ON facilities(enrichment_status);
CREATE INDEX IF NOT EXISTS idx_facilities_country ON facilities(country);
CREATE INDEX IF NOT EXISTS idx_doctors_facility ON doctors(facility_id);
CREATE INDEX IF NOT EXISTS idx_pricing_facility ON procedure_pricing(facility_id);
CREATE INDEX IF NOT EXISTS idx_testimonials_facility ON testimonials(facility_id);
CREATE INDEX IF NOT EXISTS idx_packages_facility ON facility_packages(facility_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const facilityColumns = `id, name, website, city, country, enrichment_status, enrichment_last_attempt`

func (s *PostgresStore) ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE website IS NOT NULL AND website <> ''`
	args := []any{}
	argIdx := 1

	if filter.Country != "" {
		query += fmt.Sprintf(` AND country = $%d`, argIdx)
		args = append(args, filter.Country)
		argIdx++
	}
	query += ` ORDER BY name`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list facilities")
	}
	defer rows.Close()

	var facilities []model.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan facility")
		}
		facilities = append(facilities, f)
	}
	return facilities, eris.Wrap(rows.Err(), "postgres: list facilities iterate")
}

func (s *PostgresStore) FindFacilityByName(ctx context.Context, name string) (*model.Facility, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 1`,
		name,
	)
	f, err := scanFacility(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: find facility %s", name)
	}
	return &f, nil
}

func scanFacility(row pgx.Row) (model.Facility, error) {
	var f model.Facility
	var website, city, country *string
	var lastAttempt *time.Time

	if err := row.Scan(&f.ID, &f.Name, &website, &city, &country, &f.EnrichmentStatus, &lastAttempt); err != nil {
		return model.Facility{}, err
	}
	if website != nil {
		f.Website = *website
	}
	if city != nil {
		f.City = *city
	}
	if country != nil {
		f.Country = *country
	}
	f.LastAttempt = lastAttempt
	return f, nil
}

func (s *PostgresStore) UpdateEnrichmentStatus(ctx context.Context, facilityID string, status model.EnrichmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE facilities SET enrichment_status = $1, enrichment_last_attempt = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), facilityID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update enrichment status %s", facilityID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("facility not found: %s", facilityID)
	}
	return nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT enrichment_status, COUNT(*) FROM facilities GROUP BY enrichment_status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[status] = count
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

// insertRow runs one prepared insert, treating unique violations as
// already-stored data rather than failures.
func (s *PostgresStore) insertRow(ctx context.Context, what, sql string, args ...any) error {
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		if IsUniqueViolation(err) {
			zap.L().Debug("postgres: duplicate row skipped", zap.String("entity", what))
			return nil
		}
		return eris.Wrapf(err, "postgres: insert %s", what)
	}
	return nil
}

func (s *PostgresStore) InsertDoctors(ctx context.Context, doctors []model.Doctor) error {
	for _, d := range doctors {
		err := s.insertRow(ctx, "doctor",
			`INSERT INTO doctors (id, facility_id, name, specialty, qualifications, bio, source) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), d.FacilityID, d.Name, d.Specialty, d.Qualifications, d.Bio, d.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) InsertPrices(ctx context.Context, prices []model.PriceEntry) error {
	for _, p := range prices {
		var priceMax *float64
		if p.RangeMax > 0 {
			priceMax = &p.RangeMax
		}
		err := s.insertRow(ctx, "price",
			`INSERT INTO procedure_pricing (id, facility_id, procedure_name, price, currency, price_type, price_max, source) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New().String(), p.FacilityID, p.Procedure, p.Amount, p.Currency, p.PriceType, priceMax, p.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) InsertTestimonials(ctx context.Context, testimonials []model.Testimonial) error {
	// Testimonials carry no unique constraint; COPY is the fast path.
	rows := make([][]any, 0, len(testimonials))
	for _, t := range testimonials {
		rows = append(rows, []any{uuid.New().String(), t.FacilityID, t.Author, t.Text, t.Rating, t.Source})
	}
	_, err := db.CopyFrom(ctx, s.pool, "testimonials",
		[]string{"id", "facility_id", "author", "text", "rating", "source"}, rows)
	return eris.Wrap(err, "postgres: insert testimonials")
}

func (s *PostgresStore) InsertPackages(ctx context.Context, packages []model.Package) error {
	for _, p := range packages {
		err := s.insertRow(ctx, "package",
			`INSERT INTO facility_packages (id, facility_id, package_name, description, price, included_services, source) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), p.FacilityID, p.Name, p.Description, p.Price, p.IncludedServices, p.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
