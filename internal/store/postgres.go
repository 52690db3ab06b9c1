package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/terra35/vanillacost/internal/model"
)

// Pool is the subset of pgxpool.Pool the sink uses. Tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresSink implements Sink using pgxpool.
type PostgresSink struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresSink with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresSink, error) {
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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cost_categories (
	id   BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_items (
	id             BIGSERIAL PRIMARY KEY,
	item_id        TEXT NOT NULL UNIQUE,
	item_name      TEXT NOT NULL,
	category_id    BIGINT REFERENCES cost_categories(id),
	specifications JSONB,
	notes          TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cost_pricing (
	id               BIGSERIAL PRIMARY KEY,
	cost_item_id     BIGINT NOT NULL UNIQUE REFERENCES cost_items(id),
	unit_cost        DOUBLE PRECISION NOT NULL,
	unit             TEXT NOT NULL,
	confidence_level TEXT NOT NULL,
	effective_date   DATE NOT NULL DEFAULT CURRENT_DATE,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS source_references (
	id                  BIGSERIAL PRIMARY KEY,
	cost_pricing_id     BIGINT NOT NULL REFERENCES cost_pricing(id),
	citation_kind       TEXT NOT NULL,
	citation_formatted  TEXT,
	source_url          TEXT NOT NULL DEFAULT '',
	organization        TEXT,
	date_observed       TEXT NOT NULL DEFAULT '',
	product_code        TEXT,
	contact_person      TEXT,
	quote_number        TEXT,
	document_title      TEXT,
	evidence_path       TEXT,
	data_extracted      JSONB,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	confidence_score    DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	notes               TEXT,
	UNIQUE(cost_pricing_id, citation_kind, source_url, date_observed)
);

CREATE TABLE IF NOT EXISTS collection_sessions (
	id                BIGSERIAL PRIMARY KEY,
	session_name      TEXT NOT NULL UNIQUE,
	supplier          TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'in_progress',
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ,
	records_collected INTEGER NOT NULL DEFAULT 0,
	records_persisted INTEGER NOT NULL DEFAULT 0,
	errors            INTEGER NOT NULL DEFAULT 0,
	warnings          INTEGER NOT NULL DEFAULT 0,
	cache_hits        INTEGER NOT NULL DEFAULT 0,
	requests_made     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS collection_log (
	id           BIGSERIAL PRIMARY KEY,
	session_id   BIGINT NOT NULL REFERENCES collection_sessions(id),
	cost_item_id BIGINT REFERENCES cost_items(id),
	action_type  TEXT NOT NULL,
	new_values   JSONB,
	logged_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_cost_items_item_id ON cost_items(item_id);
CREATE INDEX IF NOT EXISTS idx_cost_pricing_item ON cost_pricing(cost_item_id);
CREATE INDEX IF NOT EXISTS idx_source_refs_pricing ON source_references(cost_pricing_id);
CREATE INDEX IF NOT EXISTS idx_collection_log_session ON collection_log(session_id);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	for _, c := range defaultCategories {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO cost_categories (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			c.Code, c.Name,
		); err != nil {
			return eris.Wrapf(err, "postgres: seed category %s", c.Code)
		}
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) UpsertRecord(ctx context.Context, identity, name string, categoryRef int64, specs map[string]string, notes string) (int64, error) {
	specsJSON, err := marshalOrNull(specs)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal specifications")
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO cost_items (item_id, item_name, category_id, specifications, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (item_id) DO UPDATE SET
		   item_name = EXCLUDED.item_name,
		   category_id = EXCLUDED.category_id,
		   specifications = EXCLUDED.specifications,
		   notes = EXCLUDED.notes,
		   updated_at = now()
		 RETURNING id`,
		identity, name, nullableRef(categoryRef), specsJSON, notes,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert record %s", identity)
	}
	return id, nil
}

func (s *PostgresSink) UpsertPrice(ctx context.Context, recordRef int64, unitCost float64, unit string, tier model.ConfidenceTier) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cost_pricing (cost_item_id, unit_cost, unit, confidence_level)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cost_item_id) DO UPDATE SET
		   unit_cost = EXCLUDED.unit_cost,
		   unit = EXCLUDED.unit,
		   confidence_level = EXCLUDED.confidence_level,
		   effective_date = CURRENT_DATE,
		   updated_at = now()
		 RETURNING id`,
		recordRef, unitCost, unit, string(tier),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert price for record %d", recordRef)
	}
	return id, nil
}

func (s *PostgresSink) UpsertCitation(ctx context.Context, priceRef int64, c model.SourceCitation) error {
	extractedJSON, err := marshalOrNull(c.Extracted)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extracted data")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO source_references
		 (cost_pricing_id, citation_kind, citation_formatted, source_url, organization,
		  date_observed, product_code, contact_person, quote_number, document_title,
		  evidence_path, data_extracted, verification_status, confidence_score, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (cost_pricing_id, citation_kind, source_url, date_observed) DO UPDATE SET
		   citation_formatted = EXCLUDED.citation_formatted,
		   organization = EXCLUDED.organization,
		   product_code = EXCLUDED.product_code,
		   contact_person = EXCLUDED.contact_person,
		   quote_number = EXCLUDED.quote_number,
		   document_title = EXCLUDED.document_title,
		   evidence_path = EXCLUDED.evidence_path,
		   data_extracted = EXCLUDED.data_extracted,
		   verification_status = EXCLUDED.verification_status,
		   confidence_score = EXCLUDED.confidence_score,
		   notes = EXCLUDED.notes`,
		priceRef, c.Kind, c.Formatted, c.SourceURL, c.Organization,
		c.DateObserved, c.ProductCode, c.ContactPerson, c.QuoteNumber, c.DocumentTitle,
		c.EvidencePath, extractedJSON, c.Verification, c.Confidence, c.Notes,
	)
	return eris.Wrapf(err, "postgres: upsert citation for price %d", priceRef)
}

func (s *PostgresSink) ResolveCategory(ctx context.Context, freeText string) (int64, bool, error) {
	code := normalizeCategory(freeText)

	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM cost_categories WHERE code = $1 OR lower(name) = lower($2) LIMIT 1`,
		code, freeText,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "postgres: resolve category %q", freeText)
	}
	return id, true, nil
}

func (s *PostgresSink) StartSession(ctx context.Context, sessionID, supplier string, startedAt time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO collection_sessions (session_name, supplier, started_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_name) DO UPDATE SET supplier = EXCLUDED.supplier
		 RETURNING id`,
		sessionID, supplier, startedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: start session %s", sessionID)
	}
	return id, nil
}

func (s *PostgresSink) FinishSession(ctx context.Context, sessionRef int64, report *model.SessionReport) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE collection_sessions SET
		   status = 'completed',
		   ended_at = $1,
		   records_collected = $2,
		   records_persisted = $3,
		   errors = $4,
		   warnings = $5,
		   cache_hits = $6,
		   requests_made = $7
		 WHERE id = $8`,
		report.EndedAt.UTC(), len(report.Records), report.Persisted,
		len(report.Errors), len(report.Warnings),
		report.CacheHits, report.RequestsMade, sessionRef,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish session %d", sessionRef)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %d", sessionRef)
	}
	return nil
}

func (s *PostgresSink) LogCollection(ctx context.Context, sessionRef, recordRef int64, action string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal log payload")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO collection_log (session_id, cost_item_id, action_type, new_values)
		 VALUES ($1, $2, $3, $4)`,
		sessionRef, nullableRef(recordRef), action, payloadJSON,
	)
	return eris.Wrapf(err, "postgres: log collection for session %d", sessionRef)
}

func (s *PostgresSink) Health(ctx context.Context) (*HealthReport, error) {
	h := &HealthReport{}
	staleCutoff := time.Now().AddDate(-2, 0, 0).Format("2006-01-02")

	checks := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&h.Records, `SELECT COUNT(*) FROM cost_items`, nil},
		{&h.Prices, `SELECT COUNT(*) FROM cost_pricing`, nil},
		{&h.Citations, `SELECT COUNT(*) FROM source_references`, nil},
		{&h.Sessions, `SELECT COUNT(*) FROM collection_sessions`, nil},
		{&h.RecordsMissingPrices,
			`SELECT COUNT(*) FROM cost_items ci
			 WHERE ci.id NOT IN (SELECT cost_item_id FROM cost_pricing)`, nil},
		{&h.PricesMissingCitations,
			`SELECT COUNT(*) FROM cost_pricing cp
			 WHERE cp.id NOT IN (SELECT cost_pricing_id FROM source_references)`, nil},
		{&h.StaleCitations,
			`SELECT COUNT(*) FROM source_references
			 WHERE date_observed != '' AND date_observed < $1`, []any{staleCutoff}},
		{&h.OrphanedLogEntries,
			`SELECT COUNT(*) FROM collection_log cl
			 WHERE cl.cost_item_id IS NOT NULL
			   AND cl.cost_item_id NOT IN (SELECT id FROM cost_items)`, nil},
	}

	for _, c := range checks {
		if err := s.pool.QueryRow(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, eris.Wrap(err, "postgres: health check")
		}
	}
	return h, nil
}
