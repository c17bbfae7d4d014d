package history

import (
	"context"
	"fmt"
	"os"
	"strings"
)

var conflictModes = map[string]bool{
	"IGNORE": true, "ABORT": true, "REPLACE": true, "ROLLBACK": true, "FAIL": true,
}

// CopyOptions controls Copy.
type CopyOptions struct {
	// Origin restricts the copy to renders from one origin. Empty copies all.
	Origin string
	// OnConflict is the SQLite conflict clause used for existing IDs:
	// ignore, abort, replace, rollback or fail. Empty means ignore.
	OnConflict string
	// DryRun only counts the matching renders.
	DryRun bool
}

// Copy inserts the renders stored in the database at srcPath into the one at
// dstPath, creating the destination if needed. It returns the number of
// matching renders for a dry run and the number of inserted rows otherwise.
func Copy(ctx context.Context, srcPath, dstPath string, opts CopyOptions) (int64, error) {
	verb := strings.ToUpper(opts.OnConflict)
	if verb == "" {
		verb = "IGNORE"
	}
	if !conflictModes[verb] {
		return 0, fmt.Errorf("history: invalid conflict mode %q; use ignore|abort|replace|rollback|fail", opts.OnConflict)
	}
	if _, err := os.Stat(srcPath); err != nil {
		return 0, fmt.Errorf("history: source: %w", err)
	}

	dst, err := Open(dstPath)
	if err != nil {
		return 0, fmt.Errorf("history: dest: %w", err)
	}
	dst.Close()

	src, err := Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("history: source: %w", err)
	}
	defer src.Close()

	// ATTACH is per connection, so everything below runs on one.
	conn, err := src.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS dest`, dstPath); err != nil {
		return 0, fmt.Errorf("attach dest: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), `DETACH DATABASE dest`); err != nil {
			Logf("detach dest: %v", err)
		}
	}()

	const filter = `WHERE (? = '' OR origin = ?)`
	var matching int64
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM main.renders `+filter, opts.Origin, opts.Origin,
	).Scan(&matching); err != nil {
		return 0, fmt.Errorf("count renders: %w", err)
	}
	if opts.DryRun {
		return matching, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	// Both tables come from createTable, so their columns line up.
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR %s INTO dest.renders SELECT * FROM main.renders %s`, verb, filter),
		opts.Origin, opts.Origin)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert: %w", err)
	}
	affected, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return affected, nil
}
