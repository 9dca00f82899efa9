package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cabquote/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS manufacturers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  basePricingMultiplier REAL NOT NULL DEFAULT 1.0,
  tiersJson TEXT NOT NULL,
  optionsJson TEXT NOT NULL,
  skuCount INTEGER NOT NULL DEFAULT 0,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS catalog_entries (
  manufacturerId TEXT NOT NULL,
  sku TEXT NOT NULL,
  pricesJson TEXT NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(manufacturerId, sku),
  FOREIGN KEY(manufacturerId) REFERENCES manufacturers(id)
);
CREATE INDEX IF NOT EXISTS idx_catalog_sku ON catalog_entries(sku);

CREATE TABLE IF NOT EXISTS requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS extractions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  requestId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  source TEXT NOT NULL,
  rawLine TEXT NOT NULL,
  code TEXT,
  quantity REAL,
  itemJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(requestId, lineNo, source, rawLine),
  FOREIGN KEY(requestId) REFERENCES requests(id)
);

CREATE TABLE IF NOT EXISTS quotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  requestId INTEGER NOT NULL UNIQUE,
  manufacturerId TEXT NOT NULL,
  tierId TEXT,
  linesJson TEXT NOT NULL,
  totalsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(requestId) REFERENCES requests(id)
);

CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  projectJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  requestId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(requestId) REFERENCES requests(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertManufacturer saves the manufacturer header row. The catalog itself
// goes through UpsertCatalogEntries so a large price book never round-trips
// as one JSON blob.
func (d *DB) UpsertManufacturer(m internal.Manufacturer) error {
	tiersJSON, _ := json.Marshal(m.Tiers)
	optionsJSON, _ := json.Marshal(m.Options)
	_, err := d.conn.Exec(`
INSERT INTO manufacturers (id, name, basePricingMultiplier, tiersJson, optionsJson, skuCount, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  basePricingMultiplier=excluded.basePricingMultiplier,
  tiersJson=excluded.tiersJson,
  optionsJson=excluded.optionsJson,
  skuCount=excluded.skuCount,
  updatedAt=CURRENT_TIMESTAMP
`, m.ID, m.Name, m.BasePricingMultiplier, string(tiersJSON), string(optionsJSON), m.SKUCount)
	return err
}

func (d *DB) UpsertCatalogEntries(manufacturerID string, catalog internal.Catalog) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO catalog_entries (manufacturerId, sku, pricesJson, lastSeenAt)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(manufacturerId, sku) DO UPDATE SET
  pricesJson=excluded.pricesJson,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for sku, prices := range catalog {
		pricesJSON, _ := json.Marshal(prices)
		if _, err := stmt.Exec(manufacturerID, sku, string(pricesJSON)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE manufacturers SET skuCount = (SELECT COUNT(*) FROM catalog_entries WHERE manufacturerId = ?) WHERE id = ?`, manufacturerID, manufacturerID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListManufacturers() ([]internal.Manufacturer, error) {
	rows, err := d.conn.Query(`
SELECT id, name, basePricingMultiplier, tiersJson, optionsJson, skuCount, updatedAt
FROM manufacturers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Manufacturer
	for rows.Next() {
		m, err := scanManufacturer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetManufacturer loads the header row and assembles the full in-memory
// catalog from the entry table. Returns nil when the id is unknown.
func (d *DB) GetManufacturer(id string) (*internal.Manufacturer, error) {
	row := d.conn.QueryRow(`
SELECT id, name, basePricingMultiplier, tiersJson, optionsJson, skuCount, updatedAt
FROM manufacturers WHERE id = ?`, id)

	m, err := scanManufacturer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := d.conn.Query(`SELECT sku, pricesJson FROM catalog_entries WHERE manufacturerId = ?`, id)
	if err != nil {
		return nil, err
	}
	defer entries.Close()

	m.Catalog = internal.Catalog{}
	for entries.Next() {
		var sku, pricesJSON string
		if err := entries.Scan(&sku, &pricesJSON); err != nil {
			return nil, err
		}
		prices := map[string]float64{}
		_ = json.Unmarshal([]byte(pricesJSON), &prices)
		m.Catalog[sku] = prices
	}
	if err := entries.Err(); err != nil {
		return nil, err
	}

	return &m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManufacturer(row rowScanner) (internal.Manufacturer, error) {
	var m internal.Manufacturer
	var tiersJSON, optionsJSON string
	if err := row.Scan(&m.ID, &m.Name, &m.BasePricingMultiplier, &tiersJSON, &optionsJSON, &m.SKUCount, &m.UpdatedAt); err != nil {
		return internal.Manufacturer{}, err
	}
	_ = json.Unmarshal([]byte(tiersJSON), &m.Tiers)
	_ = json.Unmarshal([]byte(optionsJSON), &m.Options)
	return m, nil
}

func (d *DB) UpsertRequest(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.QuoteRequest, error) {
	_, err := d.conn.Exec(`
INSERT INTO requests (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.QuoteRequest{}, err
	}

	row, err := d.GetRequestByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.QuoteRequest{}, err
	}
	if row == nil {
		return internal.QuoteRequest{}, errors.New("failed to upsert request")
	}
	return *row, nil
}

func (d *DB) GetRequestByProviderMessageID(provider, messageID string) (*internal.QuoteRequest, error) {
	var row internal.QuoteRequest
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM requests WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetRequestByID(id int) (*internal.QuoteRequest, error) {
	var row internal.QuoteRequest
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM requests WHERE id = ?
`, id).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListRequestsByStatus(status string, limit int) ([]internal.QuoteRequest, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM requests WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteRequest
	for rows.Next() {
		var row internal.QuoteRequest
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateRequestStatus(requestID int, status string) error {
	_, err := d.conn.Exec(`UPDATE requests SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, requestID)
	return err
}

// ClearRequestProcessing removes prior extraction and quote rows so a request
// can be re-processed from its raw document.
func (d *DB) ClearRequestProcessing(requestID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM quotes WHERE requestId = ?`, requestID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM extractions WHERE requestId = ?`, requestID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertExtraction(requestID int, item internal.ExtractedItem) (int64, error) {
	itemJSON, _ := json.Marshal(item.Item)
	result, err := d.conn.Exec(`
INSERT INTO extractions (requestId, lineNo, source, rawLine, code, quantity, itemJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, requestID, item.LineNo, string(item.Source), item.RawLine, item.Item.OriginalCode, item.Item.Quantity, string(itemJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) ListExtractions(requestID int) ([]internal.ExtractedItem, error) {
	rows, err := d.conn.Query(`
SELECT lineNo, source, rawLine, itemJson FROM extractions
WHERE requestId = ? ORDER BY lineNo ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ExtractedItem
	for rows.Next() {
		var item internal.ExtractedItem
		var src, itemJSON string
		if err := rows.Scan(&item.LineNo, &src, &item.RawLine, &itemJSON); err != nil {
			return nil, err
		}
		item.Source = internal.ItemSource(src)
		if err := json.Unmarshal([]byte(itemJSON), &item.Item); err != nil {
			return nil, fmt.Errorf("corrupt extraction row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) SaveQuote(requestID int, manufacturerID, tierID string, lines []internal.PricingLineItem, totalsJSON string) error {
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO quotes (requestId, manufacturerId, tierId, linesJson, totalsJson)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(requestId) DO UPDATE SET
  manufacturerId=excluded.manufacturerId,
  tierId=excluded.tierId,
  linesJson=excluded.linesJson,
  totalsJson=excluded.totalsJson,
  createdAt=CURRENT_TIMESTAMP
`, requestID, manufacturerID, tierID, string(linesJSON), totalsJSON)
	return err
}

func (d *DB) GetQuote(requestID int) (*internal.StoredQuote, error) {
	var q internal.StoredQuote
	var linesJSON string
	err := d.conn.QueryRow(`
SELECT requestId, manufacturerId, tierId, linesJson, totalsJson, createdAt
FROM quotes WHERE requestId = ?`, requestID).Scan(
		&q.RequestID, &q.ManufacturerID, &q.TierID, &linesJSON, &q.TotalsJSON, &q.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(linesJSON), &q.Lines); err != nil {
		return nil, fmt.Errorf("corrupt quote row: %w", err)
	}
	return &q, nil
}

func (d *DB) SaveProject(p internal.Project) error {
	projectJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO projects (id, name, projectJson, updatedAt)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  projectJson=excluded.projectJson,
  updatedAt=CURRENT_TIMESTAMP
`, p.ID, p.Name, string(projectJSON))
	return err
}

func (d *DB) GetProject(id string) (*internal.Project, error) {
	var projectJSON string
	err := d.conn.QueryRow(`SELECT projectJson FROM projects WHERE id = ?`, id).Scan(&projectJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p internal.Project
	if err := json.Unmarshal([]byte(projectJSON), &p); err != nil {
		return nil, fmt.Errorf("corrupt project row: %w", err)
	}
	return &p, nil
}

func (d *DB) InsertRun(traceID string, requestID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, requestId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, requestID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustRequestByProviderMessageID(provider, messageID string) (internal.QuoteRequest, error) {
	row, err := d.GetRequestByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.QuoteRequest{}, err
	}
	if row == nil {
		return internal.QuoteRequest{}, fmt.Errorf("request not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}
