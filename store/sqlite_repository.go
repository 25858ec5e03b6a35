package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"imagegallery/models"
)

// SQLiteRepository stores metadata in the images table created by
// database.OpenSQLite. The UNIQUE constraint on id rejects duplicates
// without any read-modify-write.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const imageColumns = "id, filename, original_name, size, mimetype, tags, upload_date"

func (r *SQLiteRepository) Append(ctx context.Context, rec models.ImageRecord) error {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO images ("+imageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Filename, rec.OriginalName, rec.Size, rec.Mimetype,
		string(encoded), rec.UploadDate.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (models.ImageRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+imageColumns+" FROM images WHERE id = ?", id)
	rec, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ImageRecord{}, ErrNotFound
	}
	return rec, err
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.ImageRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+imageColumns+" FROM images ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	var records []models.ImageRecord
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(s rowScanner) (models.ImageRecord, error) {
	var (
		rec   models.ImageRecord
		tags  string
		nanos int64
	)
	if err := s.Scan(&rec.ID, &rec.Filename, &rec.OriginalName, &rec.Size, &rec.Mimetype, &tags, &nanos); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan image: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return rec, fmt.Errorf("%w: tags of %s: %v", ErrCorruptMetadata, rec.ID, err)
	}
	rec.UploadDate = time.Unix(0, nanos).UTC()
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
