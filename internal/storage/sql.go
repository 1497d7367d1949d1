package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"igtdoc/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS igtdoc_subtests (
		catalog    VARCHAR(255) NOT NULL,
		position   INTEGER NOT NULL,
		path       VARCHAR(512) NOT NULL,
		igt_name   VARCHAR(512) NOT NULL,
		test       VARCHAR(255) NOT NULL,
		subtest    VARCHAR(255) NOT NULL,
		documented INTEGER NOT NULL,
		file       VARCHAR(1024) NOT NULL,
		line       INTEGER NOT NULL,
		PRIMARY KEY (catalog, path)
	)`,
	`CREATE TABLE IF NOT EXISTS igtdoc_fields (
		catalog VARCHAR(255) NOT NULL,
		path    VARCHAR(512) NOT NULL,
		ordinal INTEGER NOT NULL,
		name    VARCHAR(255) NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (catalog, path, ordinal)
	)`,
}

// SQLStore keeps subtest listings in a SQLite or MySQL database.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL connects to the database named by a --to-db target.
func OpenSQL(ctx context.Context, dsn string) (*SQLStore, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// Driver returns the database/sql driver in use.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveSubtests replaces the rows stored for title with subtests and their
// effective fields.
func (s *SQLStore) SaveSubtests(ctx context.Context, title string, subtests []*domain.Subtest) (err error) {
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM igtdoc_fields WHERE catalog = ?`, title); err != nil {
		return fmt.Errorf("failed to clear fields: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM igtdoc_subtests WHERE catalog = ?`, title); err != nil {
		return fmt.Errorf("failed to clear subtests: %w", err)
	}

	insertSubtest, err := tx.PrepareContext(ctx, `INSERT INTO igtdoc_subtests
		(catalog, position, path, igt_name, test, subtest, documented, file, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertSubtest.Close()

	insertField, err := tx.PrepareContext(ctx, `INSERT INTO igtdoc_fields
		(catalog, path, ordinal, name, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertField.Close()

	for i, st := range subtests {
		path := st.Path()
		documented := 0
		if st.Documented {
			documented = 1
		}
		if _, err = insertSubtest.ExecContext(ctx, title, i, path, st.IGTName(),
			st.Test.Name, st.Name, documented, st.File, st.Line); err != nil {
			return fmt.Errorf("failed to insert subtest %s: %w", path, err)
		}
		for j, f := range st.Effective.All() {
			if _, err = insertField.ExecContext(ctx, title, path, j, f.Name, f.Value); err != nil {
				return fmt.Errorf("failed to insert field %s of %s: %w", f.Name, path, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadSubtests returns every stored subtest ordered by catalog and position.
func (s *SQLStore) LoadSubtests(ctx context.Context) ([]StoredSubtest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT catalog, path, igt_name, test, subtest, documented, file, line
		FROM igtdoc_subtests ORDER BY catalog, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtests: %w", err)
	}
	defer rows.Close()

	type key struct{ catalog, path string }
	var out []StoredSubtest
	index := make(map[key]int)
	for rows.Next() {
		var (
			catalog    string
			st         StoredSubtest
			documented int
		)
		if err := rows.Scan(&catalog, &st.Path, &st.IGTName, &st.Test, &st.Subtest, &documented, &st.File, &st.Line); err != nil {
			return nil, fmt.Errorf("failed to scan subtest: %w", err)
		}
		st.Documented = documented != 0
		index[key{catalog, st.Path}] = len(out)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx, `SELECT catalog, path, name, value
		FROM igtdoc_fields ORDER BY catalog, path, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var catalog, path, name, value string
		if err := frows.Scan(&catalog, &path, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if i, ok := index[key{catalog, path}]; ok {
			out[i].Fields.Set(name, value)
		}
	}
	return out, frows.Err()
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
