package sqlite

// The kv table is a query cache rebuilt from store.jsonl on every Attach.
const createKV = `CREATE TABLE kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// schemaDDL lists the statements run against a fresh database.
var schemaDDL = []string{
	createKV,
}
