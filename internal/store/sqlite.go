package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/oasara/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for
// local development and tests; production runs point at Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS facilities (
	id                      TEXT PRIMARY KEY,
	name                    TEXT NOT NULL,
	website                 TEXT,
	city                    TEXT,
	country                 TEXT,
	enrichment_status       TEXT NOT NULL DEFAULT 'pending',
	enrichment_last_attempt DATETIME
);

CREATE TABLE IF NOT EXISTS doctors (
	id             TEXT PRIMARY KEY,
	facility_id    TEXT NOT NULL REFERENCES facilities(id),
	name           TEXT NOT NULL,
	specialty      TEXT,
	qualifications TEXT,
	bio            TEXT,
	source         TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (facility_id, name)
);

CREATE TABLE IF NOT EXISTS procedure_pricing (
	id             TEXT PRIMARY KEY,
	facility_id    TEXT NOT NULL REFERENCES facilities(id),
	procedure_name TEXT NOT NULL,
	price          REAL NOT NULL,
	currency       TEXT NOT NULL DEFAULT 'USD',
	price_type     TEXT NOT NULL DEFAULT 'starting_from',
	price_max      REAL,
	source         TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (facility_id, procedure_name)
);

CREATE TABLE IF NOT EXISTS testimonials (
	id          TEXT PRIMARY KEY,
	facility_id TEXT NOT NULL REFERENCES facilities(id),
	author      TEXT,
	text        TEXT NOT NULL,
	rating      REAL,
	source      TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS facility_packages (
	id                TEXT PRIMARY KEY,
	facility_id       TEXT NOT NULL REFERENCES facilities(id),
	package_name      TEXT NOT NULL,
	description       TEXT,
	price             REAL,
	included_services TEXT,
	source            TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (facility_id, package_name)
);

CREATE INDEX IF NOT EXISTS idx_facilities_status ON facilities(enrichment_status);
CREATE INDEX IF NOT EXISTS idx_facilities_country ON facilities(country);
CREATE INDEX IF NOT EXISTS idx_doctors_facility ON doctors(facility_id);
CREATE INDEX IF NOT EXISTS idx_pricing_facility ON procedure_pricing(facility_id);
CREATE INDEX IF NOT EXISTS idx_testimonials_facility ON testimonials(facility_id);
CREATE INDEX IF NOT EXISTS idx_packages_facility ON facility_packages(facility_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error) {
	query := `SELECT id, name, website, city, country, enrichment_status, enrichment_last_attempt
	          FROM facilities WHERE website IS NOT NULL AND website <> ''`
	args := []any{}

	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY name`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list facilities")
	}
	defer rows.Close()

	var facilities []model.Facility
	for rows.Next() {
		f, err := scanSQLiteFacility(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan facility")
		}
		facilities = append(facilities, f)
	}
	return facilities, eris.Wrap(rows.Err(), "sqlite: list facilities iterate")
}

func (s *SQLiteStore) FindFacilityByName(ctx context.Context, name string) (*model.Facility, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, website, city, country, enrichment_status, enrichment_last_attempt
		 FROM facilities WHERE name LIKE '%' || ? || '%' ORDER BY name LIMIT 1`,
		name,
	)
	f, err := scanSQLiteFacility(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: find facility %s", name)
	}
	return &f, nil
}

func scanSQLiteFacility(scan func(dest ...any) error) (model.Facility, error) {
	var f model.Facility
	var website, city, country sql.NullString
	var lastAttempt sql.NullTime

	if err := scan(&f.ID, &f.Name, &website, &city, &country, &f.EnrichmentStatus, &lastAttempt); err != nil {
		return model.Facility{}, err
	}
	f.Website = website.String
	f.City = city.String
	f.Country = country.String
	if lastAttempt.Valid {
		t := lastAttempt.Time
		f.LastAttempt = &t
	}
	return f, nil
}

func (s *SQLiteStore) UpdateEnrichmentStatus(ctx context.Context, facilityID string, status model.EnrichmentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET enrichment_status = ?, enrichment_last_attempt = ? WHERE id = ?`,
		string(status), time.Now().UTC(), facilityID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update enrichment status %s", facilityID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("facility not found: %s", facilityID)
	}
	return nil
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT enrichment_status, COUNT(*) FROM facilities GROUP BY enrichment_status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[status] = count
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) insertRow(ctx context.Context, what, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return nil
		}
		return eris.Wrap(err, fmt.Sprintf("sqlite: insert %s", what))
	}
	return nil
}

func (s *SQLiteStore) InsertDoctors(ctx context.Context, doctors []model.Doctor) error {
	for _, d := range doctors {
		err := s.insertRow(ctx, "doctor",
			`INSERT INTO doctors (id, facility_id, name, specialty, qualifications, bio, source) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), d.FacilityID, d.Name, d.Specialty, d.Qualifications, d.Bio, d.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) InsertPrices(ctx context.Context, prices []model.PriceEntry) error {
	for _, p := range prices {
		var priceMax *float64
		if p.RangeMax > 0 {
			priceMax = &p.RangeMax
		}
		err := s.insertRow(ctx, "price",
			`INSERT INTO procedure_pricing (id, facility_id, procedure_name, price, currency, price_type, price_max, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), p.FacilityID, p.Procedure, p.Amount, p.Currency, p.PriceType, priceMax, p.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) InsertTestimonials(ctx context.Context, testimonials []model.Testimonial) error {
	for _, t := range testimonials {
		err := s.insertRow(ctx, "testimonial",
			`INSERT INTO testimonials (id, facility_id, author, text, rating, source) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), t.FacilityID, t.Author, t.Text, t.Rating, t.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) InsertPackages(ctx context.Context, packages []model.Package) error {
	for _, p := range packages {
		err := s.insertRow(ctx, "package",
			`INSERT INTO facility_packages (id, facility_id, package_name, description, price, included_services, source) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), p.FacilityID, p.Name, p.Description, p.Price, p.IncludedServices, p.Source,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
