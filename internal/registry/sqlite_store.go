package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// ArrayInfo describes one stored array without its data
type ArrayInfo struct {
	Key   string
	Shape []int
	Bytes int64
}

// DatasetInfo describes one stored dataset
type DatasetInfo struct {
	Name      string
	CreatedAt time.Time
	Arrays    []ArrayInfo
}

// SqliteStore keeps reference datasets in a Sqlite database. Arrays are
// stored as blobs of little-endian float64 values next to their shape.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the database at dbPath. Connections
// are opened on first use; the schema is created by the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// PutDataset stores d in a single transaction, replacing any dataset with the
// same name.
func (s *SqliteStore) PutDataset(ctx context.Context, d *Dataset) (err error) {
	if err = d.Validate(); err != nil {
		return err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if _, err = tx.ExecContext(ctx, deleteArraysSQL, d.Name); err != nil {
		return fmt.Errorf("deleting arrays: %w", err)
	}
	if _, err = tx.ExecContext(ctx, deleteDatasetSQL, d.Name); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}

	result, err := tx.ExecContext(ctx, insertDatasetSQL, d.Name)
	if err != nil {
		return fmt.Errorf("inserting dataset: %w", err)
	}
	datasetID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting dataset ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertArraySQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for key, a := range d.Arrays {
		if _, err = stmt.ExecContext(ctx, datasetID, key, encodeShape(a.Shape), encodeFloats(a.Data)); err != nil {
			return fmt.Errorf("inserting array '%s': %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load implements Loader. Every failure, including a missing dataset, is
// reported as a *errdefs.DataLoadError.
func (s *SqliteStore) Load(ctx context.Context, name string) (*Dataset, error) {
	d, err := s.load(ctx, name)
	if err != nil {
		var dlErr *errdefs.DataLoadError
		if errors.As(err, &dlErr) {
			return nil, err
		}
		return nil, errdefs.NewDataLoadError(name, err)
	}
	return d, nil
}

func (s *SqliteStore) load(ctx context.Context, name string) (d *Dataset, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var datasetID int64
	if err = db.QueryRowContext(ctx, selectDatasetIDSQL, name).Scan(&datasetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("dataset not found")
			return
		}
		err = fmt.Errorf("scanning dataset: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectArraysSQL, datasetID)
	if err != nil {
		err = fmt.Errorf("querying arrays: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	d = &Dataset{Name: name, Arrays: make(map[string]Array)}
	for rows.Next() {
		var key, shape string
		var blob []byte
		if err = rows.Scan(&key, &shape, &blob); err != nil {
			err = fmt.Errorf("scanning array: %w", err)
			return
		}

		var a Array
		if a.Shape, err = decodeShape(shape); err != nil {
			err = fmt.Errorf("array '%s': %w", key, err)
			return
		}
		if a.Data, err = decodeFloats(blob); err != nil {
			err = fmt.Errorf("array '%s': %w", key, err)
			return
		}
		d.Arrays[key] = a
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating arrays: %w", err)
		return
	}

	if err = d.Validate(); err != nil {
		return
	}
	return d, nil
}

// Datasets lists the stored datasets ordered by name, with their arrays
// ordered by key.
func (s *SqliteStore) Datasets(ctx context.Context) (datasets []*DatasetInfo, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectDatasetsSQL)
	if err != nil {
		err = fmt.Errorf("querying datasets: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	var current *DatasetInfo
	for rows.Next() {
		var (
			name      string
			createdAt time.Time
			key       sql.NullString
			shape     sql.NullString
			size      sql.NullInt64
		)
		if err = rows.Scan(&name, &createdAt, &key, &shape, &size); err != nil {
			err = fmt.Errorf("scanning dataset: %w", err)
			return
		}

		if current == nil || current.Name != name {
			current = &DatasetInfo{Name: name, CreatedAt: createdAt}
			datasets = append(datasets, current)
		}
		if !key.Valid {
			continue
		}

		info := ArrayInfo{Key: key.String, Bytes: size.Int64}
		if info.Shape, err = decodeShape(shape.String); err != nil {
			err = fmt.Errorf("dataset '%s', array '%s': %w", name, key.String, err)
			return
		}
		current.Arrays = append(current.Arrays, info)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating datasets: %w", err)
	}
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
