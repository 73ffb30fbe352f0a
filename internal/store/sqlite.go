package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/localpulse/listings-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for single-host
// deployments and local development.
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
CREATE TABLE IF NOT EXISTS locations (
	id                  TEXT PRIMARY KEY,
	agency_id           TEXT NOT NULL,
	name                TEXT NOT NULL,
	street              TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	country             TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	website             TEXT NOT NULL DEFAULT '',
	latitude            REAL NOT NULL DEFAULT 0,
	longitude           REAL NOT NULL DEFAULT 0,
	sync_status         TEXT NOT NULL DEFAULT 'pending_upload'
		CHECK (sync_status IN ('pending_upload', 'pending', 'under_review', 'active', 'suspended')),
	provider_listing_id TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS agency_credentials (
	agency_id  TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_attempts (
	id                  TEXT PRIMARY KEY,
	location_id         TEXT NOT NULL,
	agency_id           TEXT NOT NULL,
	started_at          DATETIME NOT NULL,
	outcome             TEXT NOT NULL,
	status              TEXT NOT NULL,
	provider_listing_id TEXT NOT NULL DEFAULT '',
	error_kind          TEXT NOT NULL DEFAULT '',
	error               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_locations_agency_id ON locations(agency_id);
CREATE INDEX IF NOT EXISTS idx_locations_sync_status ON locations(sync_status);
CREATE INDEX IF NOT EXISTS idx_sync_attempts_location_id ON sync_attempts(location_id, started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLocation(ctx context.Context, loc model.Location) (*model.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.SyncStatus == "" {
		loc.SyncStatus = model.SyncStatusPendingUpload
	}
	if !loc.SyncStatus.Valid() {
		return nil, eris.Errorf("sqlite: invalid sync status %q", loc.SyncStatus)
	}
	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ID, loc.AgencyID, loc.Name, loc.Street, loc.City, loc.Country, loc.Phone, loc.Website,
		loc.Latitude, loc.Longitude, string(loc.SyncStatus), loc.ProviderListingID, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create location")
	}
	return &loc, nil
}

func (s *SQLiteStore) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at
		 FROM locations WHERE id = ?`,
		id,
	).Scan(&loc.ID, &loc.AgencyID, &loc.Name, &loc.Street, &loc.City, &loc.Country, &loc.Phone,
		&loc.Website, &loc.Latitude, &loc.Longitude, &status, &loc.ProviderListingID,
		&loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get location %s", id)
	}
	loc.SyncStatus = model.SyncStatus(status)
	return &loc, nil
}

func (s *SQLiteStore) ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error) {
	query := `SELECT id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at FROM locations WHERE 1=1`
	var args []any

	if filter.AgencyID != "" {
		query += ` AND agency_id = ?`
		args = append(args, filter.AgencyID)
	}
	if filter.Status != "" {
		query += ` AND sync_status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.HasListing {
		query += ` AND provider_listing_id <> ''`
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + strconv.Itoa(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list locations")
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		var status string
		if err := rows.Scan(&loc.ID, &loc.AgencyID, &loc.Name, &loc.Street, &loc.City, &loc.Country,
			&loc.Phone, &loc.Website, &loc.Latitude, &loc.Longitude, &status,
			&loc.ProviderListingID, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location")
		}
		loc.SyncStatus = model.SyncStatus(status)
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *SQLiteStore) UpdateSyncStatus(ctx context.Context, id string, status model.SyncStatus, providerListingID string) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid sync status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE locations SET sync_status = ?,
		 provider_listing_id = CASE WHEN ? <> '' THEN ? ELSE provider_listing_id END,
		 updated_at = ? WHERE id = ?`,
		string(status), providerListingID, providerListingID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update sync status %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: update sync status %s: no such location", id)
	}
	return nil
}

func (s *SQLiteStore) GetCredentials(ctx context.Context, agencyID string) (*model.Credentials, error) {
	var creds model.Credentials
	err := s.db.QueryRowContext(ctx,
		`SELECT agency_id, token, updated_at FROM agency_credentials WHERE agency_id = ?`,
		agencyID,
	).Scan(&creds.AgencyID, &creds.Token, &creds.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get credentials %s", agencyID)
	}
	return &creds, nil
}

func (s *SQLiteStore) UpsertCredentials(ctx context.Context, creds model.Credentials) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agency_credentials (agency_id, token, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (agency_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		creds.AgencyID, creds.Token, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert credentials %s", creds.AgencyID)
}

func (s *SQLiteStore) LogAttempt(ctx context.Context, attempt model.SyncAttempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_attempts (id, location_id, agency_id, started_at, outcome, status, provider_listing_id, error_kind, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), attempt.LocationID, attempt.AgencyID, attempt.StartedAt,
		string(attempt.Outcome), string(attempt.Status), attempt.ProviderListingID,
		string(attempt.ErrorKind), attempt.Error,
	)
	return eris.Wrap(err, "sqlite: log attempt")
}

func (s *SQLiteStore) ListAttempts(ctx context.Context, locationID string, limit int) ([]model.SyncAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, agency_id, started_at, outcome, status, provider_listing_id, error_kind, error
		 FROM sync_attempts WHERE location_id = ? ORDER BY started_at DESC LIMIT ?`,
		locationID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list attempts %s", locationID)
	}
	defer rows.Close()

	var attempts []model.SyncAttempt
	for rows.Next() {
		var a model.SyncAttempt
		var outcome, status, kind string
		if err := rows.Scan(&a.LocationID, &a.AgencyID, &a.StartedAt, &outcome, &status,
			&a.ProviderListingID, &kind, &a.Error); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		a.Outcome = model.AttemptOutcome(outcome)
		a.Status = model.SyncStatus(status)
		a.ErrorKind = model.ErrorKind(kind)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
