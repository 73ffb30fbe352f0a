package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/localpulse/listings-cli/internal/db"
	"github.com/localpulse/listings-cli/internal/model"
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

// preparedStatements lists queries to prepare on each new connection for the
// hot paths of the publish and reconcile loops.
var preparedStatements = map[string]string{
	"get_location":       `SELECT id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at FROM locations WHERE id = $1`,
	"update_sync_status": `UPDATE locations SET sync_status = $1, provider_listing_id = COALESCE(NULLIF($2, ''), provider_listing_id), updated_at = $3 WHERE id = $4`,
	"get_credentials":    `SELECT agency_id, token, updated_at FROM agency_credentials WHERE agency_id = $1`,
	"insert_attempt":     `INSERT INTO sync_attempts (id, location_id, agency_id, started_at, outcome, status, provider_listing_id, error_kind, error) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

// The sync_status CHECK constraint and model.AllSyncStatuses are one logical
// artifact kept in two places; change them in lock-step.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS locations (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	agency_id           TEXT NOT NULL,
	name                TEXT NOT NULL,
	street              TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	country             TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	website             TEXT NOT NULL DEFAULT '',
	latitude            DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude           DOUBLE PRECISION NOT NULL DEFAULT 0,
	sync_status         TEXT NOT NULL DEFAULT 'pending_upload'
		CHECK (sync_status IN ('pending_upload', 'pending', 'under_review', 'active', 'suspended')),
	provider_listing_id TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS agency_credentials (
	agency_id  TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sync_attempts (
	id                  TEXT PRIMARY KEY,
	location_id         TEXT NOT NULL,
	agency_id           TEXT NOT NULL,
	started_at          TIMESTAMPTZ NOT NULL,
	outcome             TEXT NOT NULL,
	status              TEXT NOT NULL,
	provider_listing_id TEXT NOT NULL DEFAULT '',
	error_kind          TEXT NOT NULL DEFAULT '',
	error               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_locations_agency_id ON locations(agency_id);
CREATE INDEX IF NOT EXISTS idx_locations_sync_status ON locations(sync_status);
CREATE INDEX IF NOT EXISTS idx_sync_attempts_location_id ON sync_attempts(location_id, started_at DESC);
`

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

func (s *PostgresStore) CreateLocation(ctx context.Context, loc model.Location) (*model.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.SyncStatus == "" {
		loc.SyncStatus = model.SyncStatusPendingUpload
	}
	if !loc.SyncStatus.Valid() {
		return nil, eris.Errorf("postgres: invalid sync status %q", loc.SyncStatus)
	}
	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO locations (id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		loc.ID, loc.AgencyID, loc.Name, loc.Street, loc.City, loc.Country, loc.Phone, loc.Website,
		loc.Latitude, loc.Longitude, string(loc.SyncStatus), loc.ProviderListingID, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create location")
	}
	return &loc, nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at
		 FROM locations WHERE id = $1`,
		id,
	).Scan(&loc.ID, &loc.AgencyID, &loc.Name, &loc.Street, &loc.City, &loc.Country, &loc.Phone,
		&loc.Website, &loc.Latitude, &loc.Longitude, &status, &loc.ProviderListingID,
		&loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get location %s", id)
	}
	loc.SyncStatus = model.SyncStatus(status)
	return &loc, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, filter LocationFilter) ([]model.Location, error) {
	query := `SELECT id, agency_id, name, street, city, country, phone, website, latitude, longitude, sync_status, provider_listing_id, created_at, updated_at FROM locations WHERE 1=1`
	var args []any

	if filter.AgencyID != "" {
		args = append(args, filter.AgencyID)
		query += ` AND agency_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND sync_status = $` + strconv.Itoa(len(args))
	}
	if filter.HasListing {
		query += ` AND provider_listing_id <> ''`
	}
	query += ` ORDER BY created_at`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list locations")
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		var status string
		if err := rows.Scan(&loc.ID, &loc.AgencyID, &loc.Name, &loc.Street, &loc.City, &loc.Country,
			&loc.Phone, &loc.Website, &loc.Latitude, &loc.Longitude, &status,
			&loc.ProviderListingID, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan location")
		}
		loc.SyncStatus = model.SyncStatus(status)
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (s *PostgresStore) UpdateSyncStatus(ctx context.Context, id string, status model.SyncStatus, providerListingID string) error {
	if !status.Valid() {
		return eris.Errorf("postgres: invalid sync status %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE locations SET sync_status = $1, provider_listing_id = COALESCE(NULLIF($2, ''), provider_listing_id), updated_at = $3 WHERE id = $4`,
		string(status), providerListingID, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update sync status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: update sync status %s: no such location", id)
	}
	return nil
}

func (s *PostgresStore) GetCredentials(ctx context.Context, agencyID string) (*model.Credentials, error) {
	var creds model.Credentials
	err := s.pool.QueryRow(ctx,
		`SELECT agency_id, token, updated_at FROM agency_credentials WHERE agency_id = $1`,
		agencyID,
	).Scan(&creds.AgencyID, &creds.Token, &creds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get credentials %s", agencyID)
	}
	return &creds, nil
}

func (s *PostgresStore) UpsertCredentials(ctx context.Context, creds model.Credentials) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agency_credentials (agency_id, token, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (agency_id) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`,
		creds.AgencyID, creds.Token, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert credentials %s", creds.AgencyID)
}

func (s *PostgresStore) LogAttempt(ctx context.Context, attempt model.SyncAttempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_attempts (id, location_id, agency_id, started_at, outcome, status, provider_listing_id, error_kind, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(), attempt.LocationID, attempt.AgencyID, attempt.StartedAt,
		string(attempt.Outcome), string(attempt.Status), attempt.ProviderListingID,
		string(attempt.ErrorKind), attempt.Error,
	)
	return eris.Wrap(err, "postgres: log attempt")
}

func (s *PostgresStore) ListAttempts(ctx context.Context, locationID string, limit int) ([]model.SyncAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT location_id, agency_id, started_at, outcome, status, provider_listing_id, error_kind, error
		 FROM sync_attempts WHERE location_id = $1 ORDER BY started_at DESC LIMIT $2`,
		locationID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list attempts %s", locationID)
	}
	defer rows.Close()

	var attempts []model.SyncAttempt
	for rows.Next() {
		var a model.SyncAttempt
		var outcome, status, kind string
		if err := rows.Scan(&a.LocationID, &a.AgencyID, &a.StartedAt, &outcome, &status,
			&a.ProviderListingID, &kind, &a.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		a.Outcome = model.AttemptOutcome(outcome)
		a.Status = model.SyncStatus(status)
		a.ErrorKind = model.ErrorKind(kind)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
