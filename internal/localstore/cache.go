package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

// Cache is the on-disk companion to the in-memory annotation store: it keeps
// the last-fetched batch listings and per-image annotation snapshots so
// export and offline review work without the backend. Snapshots mirror the
// in-memory store's semantics: they are replaced wholesale per image, never
// merged.
type Cache struct {
	db *sql.DB
}

const schema = `
create table if not exists batches (
  id text primary key,
  fetched_at timestamp default current_timestamp
);

create table if not exists batch_images (
  batch_id text not null,
  position integer not null,
  image_id text not null,
  image_url text not null,
  primary key (batch_id, position)
);

create table if not exists snapshots (
  image_key text primary key,
  data text not null,
  saved_at timestamp default current_timestamp
);

create table if not exists session_state (
  key text primary key,
  value text not null
);
`

// Open opens (or creates) the cache database at path and ensures the
// schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("while opening cache database: %w", err)
	}
	c := &Cache{db: db}
	if err := c.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB wraps an existing database handle, creating the schema. Used by
// tests with an in-memory database.
func NewWithDB(db *sql.DB) (*Cache, error) {
	c := &Cache{db: db}
	if err := c.prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) prepare() error {
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("while creating cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveBatch replaces the cached image listing for a batch.
func (c *Cache) SaveBatch(ctx context.Context, batchID string, images []domain.BatchImage) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting batch save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `insert into batches (id) values (?) on conflict(id) do update set fetched_at = current_timestamp`, batchID); err != nil {
		return fmt.Errorf("while recording batch %s: %w", batchID, err)
	}
	if _, err := tx.ExecContext(ctx, `delete from batch_images where batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("while clearing stale listing for batch %s: %w", batchID, err)
	}
	for i, img := range images {
		_, err := tx.ExecContext(ctx,
			`insert into batch_images (batch_id, position, image_id, image_url) values (?, ?, ?, ?)`,
			batchID, i+1, img.ImageID, img.ImageURL)
		if err != nil {
			return fmt.Errorf("while caching image %d of batch %s: %w", i+1, batchID, err)
		}
	}
	return tx.Commit()
}

// GetBatch returns the cached listing for a batch in order, or nil if the
// batch has never been cached.
func (c *Cache) GetBatch(ctx context.Context, batchID string) ([]domain.BatchImage, error) {
	rows, err := c.db.QueryContext(ctx,
		`select image_id, image_url from batch_images where batch_id = ? order by position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("while reading cached batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var images []domain.BatchImage
	for rows.Next() {
		var img domain.BatchImage
		if err := rows.Scan(&img.ImageID, &img.ImageURL); err != nil {
			return nil, fmt.Errorf("while scanning cached image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ListBatches returns the ids of every cached batch.
func (c *Cache) ListBatches(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `select id from batches order by id`)
	if err != nil {
		return nil, fmt.Errorf("while listing cached batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveSnapshot replaces the cached annotation snapshot for an image.
func (c *Cache) SaveSnapshot(ctx context.Context, imageKey string, col store.Collection) error {
	data, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("while encoding snapshot for %s: %w", imageKey, err)
	}
	_, err = c.db.ExecContext(ctx,
		`insert into snapshots (image_key, data) values (?, ?) on conflict(image_key) do update set data = excluded.data, saved_at = current_timestamp`,
		imageKey, string(data))
	if err != nil {
		return fmt.Errorf("while saving snapshot for %s: %w", imageKey, err)
	}
	return nil
}

// GetSnapshot returns the cached snapshot for an image. The second return
// is false if the image has no snapshot.
func (c *Cache) GetSnapshot(ctx context.Context, imageKey string) (store.Collection, bool, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `select data from snapshots where image_key = ?`, imageKey).Scan(&data)
	if err == sql.ErrNoRows {
		return store.Collection{}, false, nil
	}
	if err != nil {
		return store.Collection{}, false, fmt.Errorf("while reading snapshot for %s: %w", imageKey, err)
	}

	var col store.Collection
	if err := json.Unmarshal([]byte(data), &col); err != nil {
		return store.Collection{}, false, fmt.Errorf("while decoding snapshot for %s: %w", imageKey, err)
	}
	return col, true, nil
}

// ListSnapshotKeys returns every image key that has a cached snapshot.
func (c *Cache) ListSnapshotKeys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `select image_key from snapshots order by image_key`)
	if err != nil {
		return nil, fmt.Errorf("while listing snapshots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SetSessionValue stores one key of session continuity state.
func (c *Cache) SetSessionValue(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		`insert into session_state (key, value) values (?, ?) on conflict(key) do update set value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("while saving session state %s: %w", key, err)
	}
	return nil
}

// GetSessionValue reads one key of session continuity state, returning an
// empty string when unset.
func (c *Cache) GetSessionValue(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `select value from session_state where key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("while reading session state %s: %w", key, err)
	}
	return value, nil
}
