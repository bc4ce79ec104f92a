package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/classver/internal/classfile"
	"github.com/nao1215/classver/internal/model"
)

// ResultDB holds the results of one scan.
//
// Containers and failures keep the order in which they were inserted: the
// autoincrement id is the first-seen position.
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// name identifies the in-memory database.
	name string
}

// Open creates an empty in-memory ResultDB. name distinguishes databases
// within a process; the scan ID is a good choice.
func Open(ctx context.Context, name string) (*ResultDB, error) {
	if name == "" {
		return nil, errors.New("database name must not be empty")
	}

	dsn := "file:" + url.PathEscape(name) + "?mode=memory"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives as long as its connection: keep exactly
	// one and never recycle it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	rdb := &ResultDB{
		db:   db,
		name: name,
	}

	if err := rdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close releases the database. Its contents are gone afterwards.
func (r *ResultDB) Close() error {
	return r.db.Close()
}

// Name returns the name the database was opened with.
func (r *ResultDB) Name() string {
	return r.name
}

// createTables creates the schema.
func (r *ResultDB) createTables(ctx context.Context) error {
	schema := `
	-- Containers are directories or archives holding classes
	CREATE TABLE containers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE
	);

	-- Classes store one row per Success
	CREATE TABLE classes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		container_id INTEGER NOT NULL REFERENCES containers(id),
		class_name TEXT NOT NULL,
		class_major INTEGER NOT NULL,
		class_minor INTEGER NOT NULL
	);

	CREATE INDEX idx_classes_version ON classes(class_major, class_minor);
	CREATE INDEX idx_classes_container ON classes(container_id);

	-- Failures store one row per Failure
	CREATE TABLE failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message TEXT NOT NULL
	);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Insert stores a batch of results in one transaction, keeping their order.
func (r *ResultDB) Insert(ctx context.Context, results []model.Result) (err error) {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, result := range results {
		err = model.Match(result,
			func(s model.Success) error { return insertSuccess(ctx, tx, s) },
			func(f model.Failure) error { return insertFailure(ctx, tx, f) },
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// insertSuccess stores one class, registering its container on first sight.
func insertSuccess(ctx context.Context, tx *sql.Tx, s model.Success) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO containers (path) VALUES (?) ON CONFLICT(path) DO NOTHING`,
		s.ContainerPath,
	); err != nil {
		return fmt.Errorf("failed to insert container %s: %w", s.ContainerPath, err)
	}

	query := `
	INSERT INTO classes (container_id, class_name, class_major, class_minor)
	SELECT id, ?, ?, ? FROM containers WHERE path = ?
	`
	if _, err := tx.ExecContext(ctx, query,
		s.ClassName,
		s.Version.ClassMajor,
		s.Version.ClassMinor,
		s.ContainerPath,
	); err != nil {
		return fmt.Errorf("failed to insert class %s: %w", s.Path(), err)
	}
	return nil
}

// insertFailure stores one failure message.
func insertFailure(ctx context.Context, tx *sql.Tx, f model.Failure) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO failures (message) VALUES (?)`, f.Message); err != nil {
		return fmt.Errorf("failed to insert failure: %w", err)
	}
	return nil
}

// ByContainer returns every container in first-seen order with the number
// of classes of each version it holds, versions in ascending order.
func (r *ResultDB) ByContainer(ctx context.Context) ([]model.ContainerSummary, error) {
	query := `
	SELECT c.path, cl.class_major, cl.class_minor, COUNT(*)
	FROM classes cl JOIN containers c ON c.id = cl.container_id
	GROUP BY c.id, cl.class_major, cl.class_minor
	ORDER BY c.id, cl.class_major, cl.class_minor
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group by container: %w", err)
	}
	defer rows.Close()

	var summaries []model.ContainerSummary
	for rows.Next() {
		var (
			path         string
			major, minor uint16
			count        int
		)
		if err := rows.Scan(&path, &major, &minor, &count); err != nil {
			return nil, fmt.Errorf("failed to scan container row: %w", err)
		}

		if len(summaries) == 0 || summaries[len(summaries)-1].Path != path {
			summaries = append(summaries, model.ContainerSummary{Path: path})
		}
		last := &summaries[len(summaries)-1]
		last.Versions = append(last.Versions, model.VersionCount{
			Version: classfile.Classify(major, minor),
			Count:   count,
		})
	}

	return summaries, rows.Err()
}

// ByVersion returns every version in ascending order with the containers
// holding it, in the order each container first showed that version.
func (r *ResultDB) ByVersion(ctx context.Context) ([]model.VersionSummary, error) {
	query := `
	SELECT cl.class_major, cl.class_minor, c.path
	FROM classes cl JOIN containers c ON c.id = cl.container_id
	GROUP BY cl.class_major, cl.class_minor, c.id
	ORDER BY cl.class_major, cl.class_minor, MIN(cl.id)
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group by version: %w", err)
	}
	defer rows.Close()

	var summaries []model.VersionSummary
	for rows.Next() {
		var (
			major, minor uint16
			path         string
		)
		if err := rows.Scan(&major, &minor, &path); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}

		version := classfile.Classify(major, minor)
		if len(summaries) == 0 || !summaries[len(summaries)-1].Version.Equal(version) {
			summaries = append(summaries, model.VersionSummary{Version: version})
		}
		last := &summaries[len(summaries)-1]
		last.Containers = append(last.Containers, path)
	}

	return summaries, rows.Err()
}

// Classes returns every stored class ordered by version, then insertion.
func (r *ResultDB) Classes(ctx context.Context) ([]model.Success, error) {
	query := `
	SELECT c.path, cl.class_name, cl.class_major, cl.class_minor
	FROM classes cl JOIN containers c ON c.id = cl.container_id
	ORDER BY cl.class_major, cl.class_minor, cl.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var classes []model.Success
	for rows.Next() {
		var (
			s            model.Success
			major, minor uint16
		)
		if err := rows.Scan(&s.ContainerPath, &s.ClassName, &major, &minor); err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		s.Version = classfile.Classify(major, minor)
		classes = append(classes, s)
	}

	return classes, rows.Err()
}

// Failures returns every stored failure message in insertion order.
func (r *ResultDB) Failures(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT message FROM failures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// Count returns the number of stored classes.
func (r *ResultDB) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}
	return count, nil
}

// Summarize fills the aggregated sections of summary: containers, versions
// and failures, plus the full class list when withClasses is set.
func (r *ResultDB) Summarize(ctx context.Context, summary *model.Summary, withClasses bool) error {
	var err error

	if summary.Containers, err = r.ByContainer(ctx); err != nil {
		return err
	}
	if summary.Versions, err = r.ByVersion(ctx); err != nil {
		return err
	}
	if summary.Failures, err = r.Failures(ctx); err != nil {
		return err
	}
	if withClasses {
		if summary.Classes, err = r.Classes(ctx); err != nil {
			return err
		}
	}
	return nil
}
