// Package catalog keeps a relational record of every stored chunk's
// metadata. The vector collection cannot enumerate records by metadata,
// so duplicate detection and provenance reporting run against this
// catalog instead. The vector collection stays the source of truth for
// text and vectors.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"kbchat/internal/config"
	"kbchat/internal/models"
)

// ChunkRecord mirrors one stored chunk's metadata.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunk_records,alias:cr"`

	ID              string    `bun:"id,pk"`
	Filename        string    `bun:"filename,notnull"`
	ChunkIndex      int       `bun:"chunk_index,notnull"`
	Source          string    `bun:"source,notnull"`
	StorageLocation string    `bun:"storage_location"`
	BlobName        string    `bun:"blob_name,nullzero"`
	BlobURL         string    `bun:"blob_url,nullzero"`
	UploadTimestamp time.Time `bun:"upload_timestamp,notnull"`
}

// Metadata converts the record back to the shared metadata type.
func (r ChunkRecord) Metadata() models.ChunkMetadata {
	return models.ChunkMetadata{
		Filename:        r.Filename,
		ChunkIndex:      r.ChunkIndex,
		Source:          r.Source,
		StorageLocation: r.StorageLocation,
		BlobName:        r.BlobName,
		BlobURL:         r.BlobURL,
		UploadTimestamp: r.UploadTimestamp,
	}
}

// filterColumns whitelists the metadata keys that may be used in a
// filtered fetch.
var filterColumns = map[string]string{
	models.MetaFilename:        "filename",
	models.MetaSource:          "source",
	models.MetaStorageLocation: "storage_location",
	models.MetaBlobName:        "blob_name",
	models.MetaBlobURL:         "blob_url",
}

// Connect opens the configured catalog database.
func Connect(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case "sqlite", "":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unknown catalog driver: %s", cfg.Driver)
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// Catalog provides the chunk-record operations the store needs.
type Catalog struct {
	db *bun.DB
}

func New(db *bun.DB) *Catalog {
	return &Catalog{db: db}
}

// Init creates the chunk_records table if needed.
func (c *Catalog) Init(ctx context.Context) error {
	_, err := c.db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (c *Catalog) Insert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := c.db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// FindByMeta returns all records whose metadata key equals value. Only
// whitelisted keys are queryable.
func (c *Catalog) FindByMeta(ctx context.Context, key, value string) ([]ChunkRecord, error) {
	col, ok := filterColumns[key]
	if !ok {
		return nil, fmt.Errorf("unsupported metadata filter key: %s", key)
	}
	var records []ChunkRecord
	err := c.db.NewSelect().
		Model(&records).
		Where("? = ?", bun.Ident(col), value).
		Order("filename", "chunk_index").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Catalog) Count(ctx context.Context) (int, error) {
	return c.db.NewSelect().Model((*ChunkRecord)(nil)).Count(ctx)
}

// CountBySource reports record counts per provenance tag.
func (c *Catalog) CountBySource(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Source string `bun:"source"`
		Count  int    `bun:"count"`
	}
	err := c.db.NewSelect().
		Model((*ChunkRecord)(nil)).
		ColumnExpr("source, count(*) AS count").
		Group("source").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Source] = row.Count
	}
	return counts, nil
}

// DeleteByFilename removes all records of one source document and
// returns their ids so the caller can cascade into the vector
// collection.
func (c *Catalog) DeleteByFilename(ctx context.Context, filename string) ([]string, error) {
	records, err := c.FindByMeta(ctx, models.MetaFilename, filename)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	_, err = c.db.NewDelete().
		Model((*ChunkRecord)(nil)).
		Where("filename = ?", filename).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Reset drops every record.
func (c *Catalog) Reset(ctx context.Context) error {
	_, err := c.db.NewDelete().Model((*ChunkRecord)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

func (c *Catalog) Close() error {
	return c.db.Close()
}
