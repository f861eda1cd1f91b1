package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/persistence"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores profiles in two normalized tables. Every save
// rewrites the whole set inside one transaction and bumps a revision
// counter that sync consumers use to discard stale notices.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

var _ persistence.Adapter = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: applog.Discard(),
	}, nil
}

// WithLogger sets the logger used for save diagnostics.
func (r *SQLiteRepository) WithLogger(l *applog.Logger) *SQLiteRepository {
	r.logger = l.WithComponent(applog.ComponentStorage)
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadProfiles reads every profile with its four lists, in stored order.
func (r *SQLiteRepository) LoadProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM profiles ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	type profileRow struct {
		id   int64
		name string
	}
	var stored []profileRow
	for rows.Next() {
		var pr profileRow
		if err := rows.Scan(&pr.id, &pr.name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		stored = append(stored, pr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	rows.Close()

	profiles := make([]core.Profile, 0, len(stored))
	for _, pr := range stored {
		lists, err := r.loadEntries(ctx, pr.id)
		if err != nil {
			return nil, fmt.Errorf("load entries for %q: %w", pr.name, err)
		}
		profiles = append(profiles, core.Profile{
			Name:   pr.name,
			Ledger: core.RestoreLedger(lists),
		})
	}
	return profiles, nil
}

func (r *SQLiteRepository) loadEntries(ctx context.Context, profileID int64) (map[core.Kind][]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, entry_id, amount, description, date, total_months, current_month
		FROM entries
		WHERE profile_id = ?
		ORDER BY kind, position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	lists := make(map[core.Kind][]core.Entry, 4)
	for rows.Next() {
		var (
			kind string
			e    core.Entry
		)
		if err := rows.Scan(&kind, &e.ID, &e.Amount, &e.Description, &e.Date, &e.TotalMonths, &e.CurrentMonth); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		k, err := core.ParseKind(kind)
		if err != nil {
			continue
		}
		lists[k] = append(lists[k], e)
	}
	return lists, rows.Err()
}

// SaveProfiles replaces the stored set with profiles.
func (r *SQLiteRepository) SaveProfiles(ctx context.Context, profiles []core.Profile) error {
	start := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("clear profiles: %w", err)
	}

	insertEntry, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (profile_id, kind, entry_id, position, amount, description, date, total_months, current_month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer insertEntry.Close()

	entries := 0
	for pos, p := range profiles {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (name, position) VALUES (?, ?)`, p.Name, pos)
		if err != nil {
			return fmt.Errorf("insert profile %q: %w", p.Name, err)
		}
		profileID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("profile id for %q: %w", p.Name, err)
		}
		if p.Ledger == nil {
			continue
		}

		for _, kind := range core.Kinds() {
			for i, e := range p.Ledger.Entries(kind) {
				if _, err := insertEntry.ExecContext(ctx,
					profileID, string(kind), e.ID, i, e.Amount, e.Description, e.Date, e.TotalMonths, e.CurrentMonth,
				); err != nil {
					return fmt.Errorf("insert %s %d of %q: %w", kind, e.ID, p.Name, err)
				}
				entries++
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE save_state SET revision = revision + 1, saved_at = ? WHERE id = 1`, time.Now().UTC()); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.DebugContext(ctx, "Profiles saved to SQLite",
		applog.FieldProfiles, len(profiles),
		"entries", entries,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Revision returns the number of completed saves.
func (r *SQLiteRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT revision FROM save_state WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	return rev, nil
}
