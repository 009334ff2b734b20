package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/gitacompanion/companion/engine/passage"
)

const (
	backendPGVector = "pgvector"
	defaultTable    = "verses"
	passageColumns  = "id, chapter, verse_number, ref, chapter_name, sanskrit, transliteration, " +
		"translation, translation_hi, tags"
)

// pgPool is the subset of *pgxpool.Pool used by the store.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Close()
}

type pgStore struct {
	pool       pgPool
	tableIdent string
	indexIdent string
	dimension  int
	ensureIdx  bool
}

func newPGStore(ctx context.Context, cfg *Config) (Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: failed to connect to postgres: %w", err)
	}
	store, err := newPGStoreWithPool(ctx, pool, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func newPGStoreWithPool(ctx context.Context, pool pgPool, cfg *Config) (*pgStore, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	store := &pgStore{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
		indexIdent: pgx.Identifier{table + "_embedding_idx"}.Sanitize(),
		dimension:  cfg.Dimension,
		ensureIdx:  cfg.EnsureIndex,
	}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (p *pgStore) ensureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		chapter INTEGER NOT NULL,
		verse_number INTEGER NOT NULL,
		ref TEXT NOT NULL UNIQUE,
		chapter_name TEXT NOT NULL DEFAULT '',
		sanskrit TEXT NOT NULL DEFAULT '',
		transliteration TEXT NOT NULL DEFAULT '',
		translation TEXT NOT NULL DEFAULT '',
		translation_hi TEXT NOT NULL DEFAULT '',
		tags JSONB NOT NULL DEFAULT '[]'::jsonb,
		embedding vector(%d),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, p.tableIdent, p.dimension)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	if p.ensureIdx {
		createIndex := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
			p.indexIdent,
			p.tableIdent,
		)
		if _, err := p.pool.Exec(ctx, createIndex); err != nil {
			return fmt.Errorf("pgvector: create index: %w", err)
		}
	}
	return nil
}

func (p *pgStore) Upsert(ctx context.Context, passages []passage.Passage) (err error) {
	if len(passages) == 0 {
		return nil
	}
	tx, txErr := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if txErr != nil {
		recordVectorError(ctx, backendPGVector, "upsert")
		return fmt.Errorf("pgvector: begin tx: %w", txErr)
	}
	defer func() {
		if err != nil {
			recordVectorError(ctx, backendPGVector, "upsert")
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, chapter, verse_number, ref, chapter_name, sanskrit,
    transliteration, translation, translation_hi, tags, embedding, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    chapter = excluded.chapter,
    verse_number = excluded.verse_number,
    ref = excluded.ref,
    chapter_name = excluded.chapter_name,
    sanskrit = excluded.sanskrit,
    transliteration = excluded.transliteration,
    translation = excluded.translation,
    translation_hi = excluded.translation_hi,
    tags = excluded.tags,
    embedding = COALESCE(excluded.embedding, %s.embedding),
    updated_at = excluded.updated_at`, p.tableIdent, p.tableIdent)
	for i := range passages {
		rec := &passages[i]
		var embedding any
		if rec.HasEmbedding() {
			if len(rec.Embedding) != p.dimension {
				return fmt.Errorf(
					"%w: passage %d has %d, want %d",
					ErrDimensionMismatch, rec.ID, len(rec.Embedding), p.dimension,
				)
			}
			embedding = pgvector.NewVector(rec.Embedding)
		}
		tags, marshalErr := json.Marshal(nonNilTags(rec.Tags))
		if marshalErr != nil {
			return fmt.Errorf("pgvector: marshal tags for %d: %w", rec.ID, marshalErr)
		}
		if _, execErr := tx.Exec(
			ctx, stmt,
			rec.ID, rec.Chapter, rec.Verse, rec.Ref, rec.ChapterName, rec.Sanskrit,
			rec.Transliteration, rec.Translation, rec.TranslationHi, tags, embedding, time.Now().UTC(),
		); execErr != nil {
			return fmt.Errorf("pgvector: upsert %d: %w", rec.ID, execErr)
		}
	}
	return nil
}

func (p *pgStore) Search(ctx context.Context, query []float32, k int) ([]passage.Passage, error) {
	if len(query) != p.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), p.dimension)
	}
	if k <= 0 {
		return []passage.Passage{}, nil
	}
	start := time.Now()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE embedding IS NOT NULL ORDER BY embedding <=> $1 ASC LIMIT $2",
		passageColumns, p.tableIdent,
	)
	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(query), k)
	if err != nil {
		recordVectorError(ctx, backendPGVector, "search")
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	out, err := scanPassages(rows)
	if err != nil {
		recordVectorError(ctx, backendPGVector, "search")
		return nil, err
	}
	recordVectorSearch(ctx, backendPGVector, k, time.Since(start), len(out))
	return out, nil
}

func (p *pgStore) All(ctx context.Context) ([]passage.Passage, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY chapter, verse_number, id", passageColumns, p.tableIdent)
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		recordVectorError(ctx, backendPGVector, "all")
		return nil, fmt.Errorf("pgvector: list: %w", err)
	}
	return scanPassages(rows)
}

func (p *pgStore) Get(ctx context.Context, id int) (*passage.Passage, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", passageColumns, p.tableIdent)
	rec, err := scanPassage(p.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("pgvector: get %d: %w", id, err)
	}
	return &rec, nil
}

func (p *pgStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", p.tableIdent)).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgvector: count: %w", err)
	}
	return count, nil
}

func (p *pgStore) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func scanPassages(rows pgx.Rows) ([]passage.Passage, error) {
	defer rows.Close()
	out := make([]passage.Passage, 0)
	for rows.Next() {
		rec, err := scanPassage(rows)
		if err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: rows: %w", err)
	}
	return out, nil
}

func scanPassage(row pgx.Row) (passage.Passage, error) {
	var (
		rec     passage.Passage
		tagsRaw []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.Chapter, &rec.Verse, &rec.Ref, &rec.ChapterName, &rec.Sanskrit,
		&rec.Transliteration, &rec.Translation, &rec.TranslationHi, &tagsRaw,
	); err != nil {
		return passage.Passage{}, err
	}
	rec.Tags = []string{}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &rec.Tags); err != nil {
			return passage.Passage{}, fmt.Errorf("decode tags for %d: %w", rec.ID, err)
		}
	}
	return rec, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
