package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotInfo describes one visible snapshot.
type SnapshotInfo struct {
	Seq        int64     `json:"seq"`
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SnapshotTS time.Time `json:"snapshot_ts"`
	Path       string    `json:"path"`
	Rows       int       `json:"rows"`
	CreatedAt  time.Time `json:"created_at"`
}

// catalog is the registry that makes snapshot files visible. A snapshot
// exists for readers exactly when its row exists.
type catalog struct {
	conn *sql.DB
}

func openCatalog(path string) (*catalog, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	c := &catalog{conn: conn}
	if err := c.initSchema(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return c, nil
}

func (c *catalog) Close() error {
	return c.conn.Close()
}

func (c *catalog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		snapshot_ts TEXT NOT NULL,
		snapshot_unix_nano INTEGER NOT NULL,
		path TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(snapshot_unix_nano);
	`

	_, err := c.conn.Exec(schema)
	return err
}

func (c *catalog) register(ctx context.Context, info *SnapshotInfo) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
	INSERT INTO snapshots (id, source, snapshot_ts, snapshot_unix_nano, path, row_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		info.Source,
		info.SnapshotTS.UTC().Format(time.RFC3339Nano),
		info.SnapshotTS.UnixNano(),
		info.Path,
		info.Rows,
		info.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	info.Seq = seq
	return nil
}

// list returns every visible snapshot in append order.
func (c *catalog) list(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := c.conn.QueryContext(ctx, `
	SELECT seq, id, source, snapshot_ts, path, row_count, created_at
	FROM snapshots ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []SnapshotInfo
	for rows.Next() {
		var (
			info          SnapshotInfo
			ts, createdAt string
		)
		if err := rows.Scan(&info.Seq, &info.ID, &info.Source, &ts, &info.Path, &info.Rows, &createdAt); err != nil {
			return nil, err
		}
		if info.SnapshotTS, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("snapshot %s: parsing timestamp: %w", info.ID, err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("snapshot %s: parsing created_at: %w", info.ID, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (c *catalog) newest(ctx context.Context) (time.Time, bool, error) {
	var nanos sql.NullInt64
	if err := c.conn.QueryRowContext(ctx, `SELECT MAX(snapshot_unix_nano) FROM snapshots`).Scan(&nanos); err != nil {
		return time.Time{}, false, err
	}
	if !nanos.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(0, nanos.Int64).UTC(), true, nil
}
