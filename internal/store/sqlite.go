package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/terra35/vanillacost/internal/model"
)

// SQLiteSink implements Sink using modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS cost_categories (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_items (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id        TEXT NOT NULL UNIQUE,
	item_name      TEXT NOT NULL,
	category_id    INTEGER REFERENCES cost_categories(id),
	specifications TEXT,
	notes          TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS cost_pricing (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	cost_item_id     INTEGER NOT NULL UNIQUE REFERENCES cost_items(id),
	unit_cost        REAL NOT NULL,
	unit             TEXT NOT NULL,
	confidence_level TEXT NOT NULL,
	effective_date   TEXT NOT NULL DEFAULT (date('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS source_references (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	cost_pricing_id     INTEGER NOT NULL REFERENCES cost_pricing(id),
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
	data_extracted      TEXT,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	confidence_score    REAL NOT NULL DEFAULT 0.5,
	notes               TEXT,
	UNIQUE(cost_pricing_id, citation_kind, source_url, date_observed)
);

CREATE TABLE IF NOT EXISTS collection_sessions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	session_name      TEXT NOT NULL UNIQUE,
	supplier          TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'in_progress',
	started_at        DATETIME NOT NULL,
	ended_at          DATETIME,
	records_collected INTEGER NOT NULL DEFAULT 0,
	records_persisted INTEGER NOT NULL DEFAULT 0,
	errors            INTEGER NOT NULL DEFAULT 0,
	warnings          INTEGER NOT NULL DEFAULT 0,
	cache_hits        INTEGER NOT NULL DEFAULT 0,
	requests_made     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS collection_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   INTEGER NOT NULL REFERENCES collection_sessions(id),
	cost_item_id INTEGER REFERENCES cost_items(id),
	action_type  TEXT NOT NULL,
	new_values   TEXT,
	logged_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_cost_items_item_id ON cost_items(item_id);
CREATE INDEX IF NOT EXISTS idx_cost_pricing_item ON cost_pricing(cost_item_id);
CREATE INDEX IF NOT EXISTS idx_source_refs_pricing ON source_references(cost_pricing_id);
CREATE INDEX IF NOT EXISTS idx_collection_log_session ON collection_log(session_id);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, c := range defaultCategories {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO cost_categories (code, name) VALUES (?, ?)`,
			c.Code, c.Name,
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed category %s", c.Code)
		}
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) UpsertRecord(ctx context.Context, identity, name string, categoryRef int64, specs map[string]string, notes string) (int64, error) {
	specsJSON, err := marshalOrNull(specs)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal specifications")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cost_items (item_id, item_name, category_id, specifications, notes)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
		   item_name = excluded.item_name,
		   category_id = excluded.category_id,
		   specifications = excluded.specifications,
		   notes = excluded.notes,
		   updated_at = datetime('now')`,
		identity, name, nullableRef(categoryRef), specsJSON, notes,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert record %s", identity)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM cost_items WHERE item_id = ?`, identity,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: resolve record ref %s", identity)
	}
	return id, nil
}

func (s *SQLiteSink) UpsertPrice(ctx context.Context, recordRef int64, unitCost float64, unit string, tier model.ConfidenceTier) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cost_pricing (cost_item_id, unit_cost, unit, confidence_level)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cost_item_id) DO UPDATE SET
		   unit_cost = excluded.unit_cost,
		   unit = excluded.unit,
		   confidence_level = excluded.confidence_level,
		   effective_date = date('now'),
		   updated_at = datetime('now')`,
		recordRef, unitCost, unit, string(tier),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert price for record %d", recordRef)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM cost_pricing WHERE cost_item_id = ?`, recordRef,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: resolve price ref for record %d", recordRef)
	}
	return id, nil
}

func (s *SQLiteSink) UpsertCitation(ctx context.Context, priceRef int64, c model.SourceCitation) error {
	extractedJSON, err := marshalOrNull(c.Extracted)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extracted data")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO source_references
		 (cost_pricing_id, citation_kind, citation_formatted, source_url, organization,
		  date_observed, product_code, contact_person, quote_number, document_title,
		  evidence_path, data_extracted, verification_status, confidence_score, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cost_pricing_id, citation_kind, source_url, date_observed) DO UPDATE SET
		   citation_formatted = excluded.citation_formatted,
		   organization = excluded.organization,
		   product_code = excluded.product_code,
		   contact_person = excluded.contact_person,
		   quote_number = excluded.quote_number,
		   document_title = excluded.document_title,
		   evidence_path = excluded.evidence_path,
		   data_extracted = excluded.data_extracted,
		   verification_status = excluded.verification_status,
		   confidence_score = excluded.confidence_score,
		   notes = excluded.notes`,
		priceRef, c.Kind, c.Formatted, c.SourceURL, c.Organization,
		c.DateObserved, c.ProductCode, c.ContactPerson, c.QuoteNumber, c.DocumentTitle,
		c.EvidencePath, extractedJSON, c.Verification, c.Confidence, c.Notes,
	)
	return eris.Wrapf(err, "sqlite: upsert citation for price %d", priceRef)
}

func (s *SQLiteSink) ResolveCategory(ctx context.Context, freeText string) (int64, bool, error) {
	code := normalizeCategory(freeText)

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM cost_categories WHERE code = ? OR lower(name) = lower(?) LIMIT 1`,
		code, freeText,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "sqlite: resolve category %q", freeText)
	}
	return id, true, nil
}

func (s *SQLiteSink) StartSession(ctx context.Context, sessionID, supplier string, startedAt time.Time) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collection_sessions (session_name, supplier, started_at)
		 VALUES (?, ?, ?)`,
		sessionID, supplier, startedAt.UTC(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: start session %s", sessionID)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM collection_sessions WHERE session_name = ?`, sessionID,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: resolve session %s", sessionID)
	}
	return id, nil
}

func (s *SQLiteSink) FinishSession(ctx context.Context, sessionRef int64, report *model.SessionReport) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE collection_sessions SET
		   status = 'completed',
		   ended_at = ?,
		   records_collected = ?,
		   records_persisted = ?,
		   errors = ?,
		   warnings = ?,
		   cache_hits = ?,
		   requests_made = ?
		 WHERE id = ?`,
		report.EndedAt.UTC(), len(report.Records), report.Persisted,
		len(report.Errors), len(report.Warnings),
		report.CacheHits, report.RequestsMade, sessionRef,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish session %d", sessionRef)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("session not found: %d", sessionRef)
	}
	return nil
}

func (s *SQLiteSink) LogCollection(ctx context.Context, sessionRef, recordRef int64, action string, payload any) error {
	payloadJSON, err := marshalOrNull(payload)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal log payload")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_log (session_id, cost_item_id, action_type, new_values)
		 VALUES (?, ?, ?, ?)`,
		sessionRef, nullableRef(recordRef), action, payloadJSON,
	)
	return eris.Wrapf(err, "sqlite: log collection for session %d", sessionRef)
}

// healthChecks pairs each integrity query with the report field it fills.
func (s *SQLiteSink) Health(ctx context.Context) (*HealthReport, error) {
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
			 WHERE date_observed != '' AND date_observed < ?`, []any{staleCutoff}},
		{&h.OrphanedLogEntries,
			`SELECT COUNT(*) FROM collection_log cl
			 WHERE cl.cost_item_id IS NOT NULL
			   AND cl.cost_item_id NOT IN (SELECT id FROM cost_items)`, nil},
	}

	for _, c := range checks {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: health check")
		}
	}
	return h, nil
}

// helpers

func marshalOrNull(v any) (any, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		if len(vv) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableRef(ref int64) any {
	if ref == 0 {
		return nil
	}
	return ref
}

func normalizeCategory(freeText string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(freeText)), " ", "_")
}
