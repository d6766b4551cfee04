package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cinema/internal/logging"
	"cinema/internal/pool"
)

// SourceCount is the number of rows created by one source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// DuplicateGroup is a natural key held by more than one row.
type DuplicateGroup struct {
	Name     string       `json:"name"`
	Director string       `json:"director"`
	Members  []AuditEntry `json:"members"`
}

// CheckReport summarizes the state of one domain database.
type CheckReport struct {
	Domain         Domain           `json:"domain"`
	Path           string           `json:"path"`
	Total          int              `json:"total"`
	Sources        []SourceCount    `json:"sources"`
	Duplicates     []DuplicateGroup `json:"duplicates"`
	MissingColumns []string         `json:"missingColumns,omitempty"`
	IntegrityCheck bool             `json:"integrityCheck"`
	Pool           pool.Stats       `json:"pool"`
}

var expectedColumns = []string{
	"id", "cover", "local_cover", "name", "score", "area", "language", "category",
	"release_date", "duration", "director", "actors", "summary", "download_link", "source",
}

// Check counts rows per source, lists duplicated natural keys with their
// members, verifies the media columns, and runs PRAGMA integrity_check.
func (s *Store) Check(ctx context.Context) (CheckReport, error) {
	ctx = ensureContext(ctx)
	report := CheckReport{
		Domain:     s.domain,
		Path:       s.path,
		Sources:    []SourceCount{},
		Duplicates: []DuplicateGroup{},
	}

	err := s.withConn(ctx, "check", func(conn *pool.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&report.Total); err != nil {
			return storeErr("check: count", err)
		}

		rows, err := conn.QueryContext(ctx, "SELECT source, COUNT(*) FROM media GROUP BY source ORDER BY source")
		if err != nil {
			return storeErr("check: sources", err)
		}
		for rows.Next() {
			var sc SourceCount
			if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
				rows.Close()
				return storeErr("check: sources", err)
			}
			report.Sources = append(report.Sources, sc)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeErr("check: sources", err)
		}

		rows, err = conn.QueryContext(ctx, `
			SELECT m.id, m.name, m.director, m.source
			FROM media m
			JOIN (
				SELECT name, director FROM media GROUP BY name, director HAVING COUNT(*) > 1
			) d ON d.name = m.name AND d.director = m.director
			ORDER BY m.name, m.director, m.id`)
		if err != nil {
			return storeErr("check: duplicates", err)
		}
		for rows.Next() {
			var entry AuditEntry
			if err := rows.Scan(&entry.ID, &entry.Name, &entry.Director, &entry.Source); err != nil {
				rows.Close()
				return storeErr("check: duplicates", err)
			}
			last := len(report.Duplicates) - 1
			if last < 0 || report.Duplicates[last].Name != entry.Name || report.Duplicates[last].Director != entry.Director {
				report.Duplicates = append(report.Duplicates, DuplicateGroup{Name: entry.Name, Director: entry.Director})
				last++
			}
			report.Duplicates[last].Members = append(report.Duplicates[last].Members, entry)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeErr("check: duplicates", err)
		}

		rows, err = conn.QueryContext(ctx, "SELECT name FROM pragma_table_info('media')")
		if err != nil {
			return storeErr("check: table info", err)
		}
		present := make(map[string]struct{}, len(expectedColumns))
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return storeErr("check: table info", err)
			}
			present[name] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeErr("check: table info", err)
		}
		for _, col := range expectedColumns {
			if _, ok := present[col]; !ok {
				report.MissingColumns = append(report.MissingColumns, col)
			}
		}

		var integrity string
		if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
			return storeErr("check: integrity", err)
		}
		report.IntegrityCheck = strings.EqualFold(integrity, "ok")
		return nil
	})
	report.Pool = s.pool.Stats()
	if err != nil {
		return report, err
	}
	return report, nil
}

// BackupName returns the dated file name used for a backup of dbPath taken
// on day now, e.g. movie_20260102.db.
func BackupName(dbPath string, now time.Time) string {
	base := filepath.Base(dbPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s.db", stem, now.Format("20060102"))
}

// Backup writes a consistent copy of the database into dir using VACUUM INTO
// and returns the backup path. A backup taken earlier the same day is
// replaced.
func (s *Store) Backup(ctx context.Context, dir string, now time.Time) (string, error) {
	ctx = ensureContext(ctx)
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("backup: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create directory: %w", err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return "", fmt.Errorf("backup: directory %s is not writable: %w", dir, err)
	}

	need, err := databaseSize(s.path)
	if err != nil {
		return "", err
	}
	if err := ensureFreeSpace(dir, need); err != nil {
		return "", err
	}

	target := filepath.Join(dir, BackupName(s.path, now))
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("backup: replace %s: %w", target, err)
	}

	err = s.withConn(ctx, "backup", func(conn *pool.Conn) error {
		_, err := conn.ExecContext(ctx, "VACUUM INTO ?", target)
		return storeErr("backup", err, target)
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("database backed up",
		logging.String("backup", target),
		logging.Int64("bytes", need),
	)
	return target, nil
}

func databaseSize(path string) (int64, error) {
	var total int64
	for _, candidate := range []string{path, path + "-wal"} {
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && candidate != path {
				continue
			}
			return 0, fmt.Errorf("backup: stat %s: %w", candidate, err)
		}
		total += info.Size()
	}
	return total, nil
}

func ensureFreeSpace(dir string, need int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("backup: statfs %s: %w", dir, err)
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < need {
		return fmt.Errorf("backup: %s has %d bytes free, need %d", dir, available, need)
	}
	return nil
}
