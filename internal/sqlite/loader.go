package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// loadJSONL reads store.jsonl into the kv table inside one transaction: either
// every line loads or the table stays empty. Lines that are not kvRecords, or
// that have an empty key, are skipped. A key appearing on several lines keeps
// its last value. Unknown fields are ignored.
func loadJSONL(db *sql.DB, dataDir string) (int, error) {
	records, err := readJSONL(filepath.Join(dataDir, storeJSONL))
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	loaded := 0
	for _, raw := range records {
		var rec kvRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Key == "" {
			continue
		}
		if rec.UpdatedAt == "" {
			rec.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(rec.Key, rec.Value, rec.UpdatedAt); err != nil {
			return 0, fmt.Errorf("inserting %q: %w", rec.Key, err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// dumpJSONL renders the kv table as store.jsonl lines, ordered by key so the
// file diffs cleanly.
func dumpJSONL(db *sql.DB) ([]json.RawMessage, error) {
	rows, err := db.Query(`SELECT key, value, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying kv: %w", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var rec kvRecord
		if err := rows.Scan(&rec.Key, &rec.Value, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning kv: %w", err)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
