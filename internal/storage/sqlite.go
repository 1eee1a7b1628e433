package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/litreview/lit/internal/bibtex"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// StoredEntry is an entry together with the file it was read from.
type StoredEntry struct {
	Source string `json:"source"`
	bibtex.Entry
}

const selectEntryFields = `e.source, e.entry_type, e.entry_key, e.doi, e.title, e.abstract, e.keywords, e.fields_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // single writer

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			entry_type TEXT,
			entry_key TEXT,
			doi TEXT,
			title TEXT,
			abstract TEXT,
			keywords TEXT,
			fields_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_doi ON entries(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source);

		-- standalone FTS table keyed by entries.id
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			entry_id UNINDEXED,
			title,
			abstract,
			keywords
		);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceEntries drops everything previously stored for source and
// inserts entries in one transaction. It returns the number inserted.
func (d *DB) ReplaceEntries(source string, entries []bibtex.Entry) (n int, err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`DELETE FROM entries_fts WHERE entry_id IN (SELECT id FROM entries WHERE source = ?)`, source); err != nil {
		return 0, fmt.Errorf("clearing fts rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entries WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clearing entries: %w", err)
	}

	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (source, entry_type, entry_key, doi, title, abstract, keywords, fields_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing entry insert: %w", err)
	}
	defer entryStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO entries_fts (entry_id, title, abstract, keywords) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, e := range entries {
		fieldsJSON, err := json.Marshal(e.Fields)
		if err != nil {
			return 0, fmt.Errorf("marshaling fields of entry %d: %w", i, err)
		}
		res, err := entryStmt.Exec(source, e.Type, e.Key,
			nullableStringValue(e.DOI), e.Title, e.Abstract, e.Keywords, string(fieldsJSON))
		if err != nil {
			return 0, fmt.Errorf("inserting entry %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading id of entry %d: %w", i, err)
		}
		if _, err := ftsStmt.Exec(id, e.Title, e.Abstract, e.Keywords); err != nil {
			return 0, fmt.Errorf("indexing entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(entries), nil
}

// Search performs a full-text search over title, abstract and keywords,
// best matches first.
func (d *DB) Search(query string, limit int) ([]StoredEntry, error) {
	return d.match(prepareFTSQuery(query), limit)
}

// SearchField restricts the search to one column: title, abstract or keywords.
func (d *DB) SearchField(field, value string, limit int) ([]StoredEntry, error) {
	switch field {
	case "title", "abstract", "keywords":
	default:
		return nil, fmt.Errorf("unknown search field: %s", field)
	}
	q := prepareFTSQuery(value)
	if q == "" {
		return nil, nil
	}
	// the filter must cover every term, not just the first
	return d.match(field+" : ("+q+")", limit)
}

func (d *DB) match(ftsQuery string, limit int) ([]StoredEntry, error) {
	if ftsQuery == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT `+selectEntryFields+`
		FROM entries_fts JOIN entries e ON e.id = entries_fts.entry_id
		WHERE entries_fts MATCH ?
		ORDER BY entries_fts.rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindByDOI returns every stored entry with the given bare DOI.
func (d *DB) FindByDOI(doi string) ([]StoredEntry, error) {
	rows, err := d.db.Query(`SELECT `+selectEntryFields+` FROM entries e WHERE e.doi = ? ORDER BY e.id`, bibtex.BareDOI(doi))
	if err != nil {
		return nil, fmt.Errorf("looking up DOI: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count returns the total number of stored entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// SourceCount is the number of entries stored for one source.
type SourceCount struct {
	Source  string `json:"source"`
	Entries int    `json:"entries"`
}

// Sources lists stored sources by name.
func (d *DB) Sources() ([]SourceCount, error) {
	rows, err := d.db.Query(`SELECT source, COUNT(*) FROM entries GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Entries); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanEntries(rows *sql.Rows) ([]StoredEntry, error) {
	var out []StoredEntry
	for rows.Next() {
		var se StoredEntry
		var entryType, key, doi, title, abstract, keywords, fieldsJSON sql.NullString
		if err := rows.Scan(&se.Source, &entryType, &key, &doi, &title, &abstract, &keywords, &fieldsJSON); err != nil {
			return nil, err
		}
		se.Type = entryType.String
		se.Key = key.String
		se.DOI = doi.String
		se.Title = title.String
		se.Abstract = abstract.String
		se.Keywords = keywords.String
		if fieldsJSON.Valid && fieldsJSON.String != "" && fieldsJSON.String != "null" {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &se.Fields); err != nil {
				return nil, fmt.Errorf("parsing fields JSON: %w", err)
			}
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrases; quoting disables operators
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
