// Package postgres implements the record store boundary on PostgreSQL for
// self-hosted deployments. Records are stored as jsonb documents; query
// predicates are evaluated through the shared matcher so the semantics stay
// identical to the other adapters.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quayside/stockflow/pkg/recordstore"
)

// Store is a pgx-backed record store
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a record store over an existing connection pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Verify interface compliance
var _ recordstore.Store = (*Store)(nil)

// EnsureSchema creates the backing table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			entity TEXT NOT NULL,
			id     TEXT NOT NULL,
			doc    JSONB NOT NULL,
			PRIMARY KEY (entity, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", recordstore.ErrUnavailable, err)
	}
	return nil
}

// Find loads every record of the entity and evaluates the query locally.
// Collections here are per-warehouse working sets, small enough that
// pushdown beyond the entity partition is not worth a second predicate
// dialect.
func (s *Store) Find(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) ([]recordstore.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM records WHERE entity = $1`, string(entity))
	if err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", recordstore.ErrUnavailable, entity, err)
	}
	defer rows.Close()

	var recs []recordstore.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", recordstore.ErrUnavailable, entity, err)
		}
		var rec recordstore.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", entity, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: find %s: %v", recordstore.ErrUnavailable, entity, err)
	}
	return query.Apply(recs), nil
}

// Create inserts a record, assigning a uuid when the caller supplied no id
func (s *Store) Create(ctx context.Context, entity recordstore.EntityType, fields recordstore.Record) (recordstore.Record, error) {
	rec := make(recordstore.Record, len(fields)+1)
	for k, v := range fields {
		rec[k] = v
	}
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", entity, err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO records (entity, id, doc) VALUES ($1, $2, $3)`,
		string(entity), rec.ID(), doc); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", recordstore.ErrUnavailable, entity, err)
	}
	return roundTrip(rec)
}

// Update merges fields into the identified record under a row lock,
// re-checking the guards before writing
func (s *Store) Update(ctx context.Context, entity recordstore.EntityType, id string, fields recordstore.Record, guards ...recordstore.Predicate) (recordstore.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", recordstore.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM records WHERE entity = $1 AND id = $2 FOR UPDATE`,
		string(entity), id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recordstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s/%s: %v", recordstore.ErrUnavailable, entity, id, err)
	}

	var rec recordstore.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", entity, err)
	}
	for _, guard := range guards {
		if !guard.Matches(rec) {
			return nil, recordstore.ErrConflict
		}
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec[k] = v
	}

	updated, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", entity, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE records SET doc = $3 WHERE entity = $1 AND id = $2`,
		string(entity), id, updated); err != nil {
		return nil, fmt.Errorf("%w: update %s/%s: %v", recordstore.ErrUnavailable, entity, id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", recordstore.ErrUnavailable, err)
	}
	return roundTrip(rec)
}

// Delete removes all records matching the query
func (s *Store) Delete(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) error {
	matched, err := s.Find(ctx, entity, query)
	if err != nil {
		return err
	}
	for _, rec := range matched {
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM records WHERE entity = $1 AND id = $2`,
			string(entity), rec.ID()); err != nil {
			return fmt.Errorf("%w: delete %s/%s: %v", recordstore.ErrUnavailable, entity, rec.ID(), err)
		}
	}
	return nil
}

// roundTrip normalizes a record through JSON so reads after writes return
// the same value types as reads from disk
func roundTrip(rec recordstore.Record) (recordstore.Record, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var out recordstore.Record
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
