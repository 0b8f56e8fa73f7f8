/*
Package journal keeps a SQLite record of batch outcomes so that a later run
into the same destination skips what was already converted, even when the
output files have since been moved away.
*/
package journal

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pixelart/batch"
)

// Journal is safe for concurrent use.
type Journal struct {
	db *sql.DB
}

var _ batch.Journal = &Journal{}

// Open opens or creates the journal database at file.
func Open(file string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dsn(file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS item (dest TEXT PRIMARY KEY NOT NULL, idx INTEGER NOT NULL, name TEXT NOT NULL, status TEXT NOT NULL, error TEXT, updated INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// dsn escapes file so that '?', '#' and '%' in the path are not taken for
// URI syntax.
func dsn(file string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     file,
		RawQuery: "_busy_timeout=5000&_journal_mode=WAL",
	}
	return u.String()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Seen reports whether dest was converted successfully before.
func (j *Journal) Seen(ctx context.Context, dest string) (bool, error) {
	var status string
	switch err := j.db.QueryRowContext(ctx, "SELECT status FROM item WHERE dest = ?", dest).Scan(&status); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
		return status == batch.Converted.String(), nil
	default:
		return false, err
	}
}

// Record stores the outcome of an item, replacing an earlier one for the
// same destination. A successful conversion is never downgraded by a later
// skip.
func (j *Journal) Record(ctx context.Context, res batch.Result) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO item (dest, idx, name, status, error, updated) VALUES (?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(dest) DO UPDATE SET idx = excluded.idx, name = excluded.name, status = excluded.status, error = excluded.error, updated = excluded.updated "+
			"WHERE item.status != ? OR excluded.status = ?",
		res.Dest, res.Index, res.Name, res.Status.String(), errText, time.Now().Unix(),
		batch.Converted.String(), batch.Converted.String())
	return err
}

// Entry is one recorded outcome.
type Entry struct {
	Dest    string
	Index   uint32
	Name    string
	Status  string
	Error   string
	Updated time.Time
}

// Entries lists every recorded outcome ordered by index.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT dest, idx, name, status, error, updated FROM item ORDER BY idx, dest")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errText sql.NullString
		var updated int64
		if err := rows.Scan(&e.Dest, &e.Index, &e.Name, &e.Status, &errText, &updated); err != nil {
			return nil, err
		}
		e.Error = errText.String
		e.Updated = time.Unix(updated, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
