// Package warehouse is the append-only snapshot store. Each snapshot is one
// immutable columnar file on a Medium; a SQLite catalog row makes it visible.
// Readers get either the full history or the latest record per model.
package warehouse

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/modelrank/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	catalogFile = "catalog.db"

	// loadWorkers bounds concurrent snapshot decoding in Latest.
	loadWorkers = 4
)

var sourcePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ErrInvalidSource is wrapped by AppendSnapshot when the source name cannot
// be used as a storage path segment.
var ErrInvalidSource = errors.New("invalid source name")

// Options configures Open.
type Options struct {
	// Dir holds the catalog and, unless Medium is set, the snapshot files.
	Dir string

	// Medium overrides where snapshot files are stored.
	Medium Medium
}

// Warehouse is an open handle on a snapshot store. Close it when done.
type Warehouse struct {
	medium  Medium
	catalog *catalog
	now     func() time.Time
}

// Filter selects records from History. A nil Filter selects everything.
type Filter func(models.Record) bool

// ByModel selects the records of one canonical model key.
func ByModel(key string) Filter {
	return func(r models.Record) bool { return r.CanonicalKey == key }
}

// BySource selects the records captured from one source.
func BySource(source string) Filter {
	return func(r models.Record) bool { return r.Source == source }
}

// Open opens (creating if needed) the warehouse rooted at opts.Dir.
func Open(_ context.Context, opts Options) (*Warehouse, error) {
	if opts.Dir == "" {
		return nil, errors.New("warehouse directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &StorageError{Op: "open", Path: opts.Dir, Err: err}
	}

	cat, err := openCatalog(filepath.Join(opts.Dir, catalogFile))
	if err != nil {
		return nil, &StorageError{Op: "open", Path: opts.Dir, Err: err}
	}

	medium := opts.Medium
	if medium == nil {
		medium = &FileMedium{Root: opts.Dir}
	}
	return &Warehouse{medium: medium, catalog: cat, now: time.Now}, nil
}

// Close releases the catalog connection.
func (w *Warehouse) Close() error {
	return w.catalog.Close()
}

// AppendSnapshot stores records as a new snapshot of (source, ts). Every
// call creates a distinct snapshot, even for a repeated (source, ts). The
// snapshot becomes visible all at once, after its file is fully written.
// Every failure is a *StorageError.
func (w *Warehouse) AppendSnapshot(ctx context.Context, records []models.Record, source string, ts time.Time) (SnapshotInfo, error) {
	if !sourcePattern.MatchString(source) {
		return SnapshotInfo{}, &StorageError{Op: "append", Path: source, Err: ErrInvalidSource}
	}

	ts = ts.UTC()
	id := uuid.NewString()
	name := path.Join("snapshots", source, ts.Format("20060102T150405.000000000Z")+"_"+id+".json.zst")

	data, err := encodeSnapshot(id, source, ts, records)
	if err != nil {
		return SnapshotInfo{}, &StorageError{Op: "encode", Path: name, Err: err}
	}
	if err := w.medium.Put(ctx, name, data); err != nil {
		return SnapshotInfo{}, &StorageError{Op: "write", Path: w.medium.Location(name), Err: err}
	}

	info := SnapshotInfo{
		ID:         id,
		Source:     source,
		SnapshotTS: ts,
		Path:       name,
		Rows:       len(records),
		CreatedAt:  w.now().UTC(),
	}
	if err := w.catalog.register(ctx, &info); err != nil {
		// The orphaned file stays invisible; nothing refers to it.
		return SnapshotInfo{}, &StorageError{Op: "register", Path: w.medium.Location(name), Err: err}
	}

	slog.Debug("Snapshot appended", "id", id, "source", source, "snapshot_ts", ts, "rows", len(records))
	return info, nil
}

// Snapshots lists visible snapshots in append order.
func (w *Warehouse) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	snaps, err := w.catalog.list(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return snaps, nil
}

// LatestSnapshotTime returns the newest visible snapshot timestamp, or
// false when the warehouse is empty.
func (w *Warehouse) LatestSnapshotTime(ctx context.Context) (time.Time, bool, error) {
	ts, ok, err := w.catalog.newest(ctx)
	if err != nil {
		return time.Time{}, false, &StorageError{Op: "list", Err: err}
	}
	return ts, ok, nil
}

// History yields every record ever appended, oldest snapshot first and in
// file order within a snapshot. Snapshots are loaded one at a time as the
// sequence is consumed; ranging over it again starts from the beginning
// with the snapshots visible at that moment.
func (w *Warehouse) History(ctx context.Context, filter Filter) iter.Seq2[models.Record, error] {
	return func(yield func(models.Record, error) bool) {
		snaps, err := w.Snapshots(ctx)
		if err != nil {
			yield(models.Record{}, err)
			return
		}
		for _, s := range snaps {
			records, err := w.load(ctx, s)
			if err != nil {
				yield(models.Record{}, err)
				return
			}
			for _, r := range records {
				if filter != nil && !filter(r) {
					continue
				}
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

// Latest returns one record per canonical model key: the one from the
// newest snapshot. Equal timestamps fall back to source priority, then to
// the lexicographically smaller source, then to the later append.
func (w *Warehouse) Latest(ctx context.Context) (map[string]models.Record, error) {
	snaps, err := w.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([][]models.Record, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadWorkers)
	for i, s := range snaps {
		g.Go(func() error {
			records, err := w.load(gctx, s)
			if err != nil {
				return err
			}
			loaded[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	latest := make(map[string]models.Record)
	for _, records := range loaded {
		for _, r := range records {
			if cur, ok := latest[r.CanonicalKey]; !ok || supersedes(r, cur) {
				latest[r.CanonicalKey] = r
			}
		}
	}
	return latest, nil
}

// supersedes reports whether candidate replaces current in the latest view.
// Callers visit records in append order, so a full tie goes to candidate.
func supersedes(candidate, current models.Record) bool {
	if !candidate.SnapshotTS.Equal(current.SnapshotTS) {
		return candidate.SnapshotTS.After(current.SnapshotTS)
	}
	if pc, pr := models.SourcePriority(candidate.Source), models.SourcePriority(current.Source); pc != pr {
		return pc < pr
	}
	if candidate.Source != current.Source {
		return candidate.Source < current.Source
	}
	return true
}

func (w *Warehouse) load(ctx context.Context, s SnapshotInfo) ([]models.Record, error) {
	data, err := w.medium.Get(ctx, s.Path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: w.medium.Location(s.Path), Err: err}
	}
	_, records, err := decodeSnapshot(data)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: w.medium.Location(s.Path), Err: err}
	}
	return records, nil
}
