// Package store persists pre-tokenized training examples so collation can
// run against stable datasets instead of re-tokenizing on every epoch.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/typhon-ml/tensorbatch/tbatch/collate"
)

// ExampleStore keeps tokenized examples in a libsql database, grouped by
// dataset name and ordered by insertion position.
type ExampleStore struct {
	db *sql.DB
}

// record is the JSON row shape for one example.
type record struct {
	InputIDs          []int64              `json:"input_ids"`
	AttentionMask     []int64              `json:"attention_mask,omitempty"`
	Labels            []int64              `json:"labels,omitempty"`
	SpecialTokensMask []bool               `json:"special_tokens_mask,omitempty"`
	TargetValue       []float64            `json:"target_value,omitempty"`
	TargetNamed       map[string][]float64 `json:"target_named,omitempty"`
}

// NewExampleStore opens or initializes the example database at path.
func NewExampleStore(path string) (*ExampleStore, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open example store at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to example store at %s: %w", path, err)
	}

	store := &ExampleStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// init sets up the example tables.
func (s *ExampleStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS examples (
		id TEXT PRIMARY KEY UNIQUE,
		dataset TEXT NOT NULL,
		position INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create examples table: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_examples_dataset
		ON examples (dataset, position)`)
	if err != nil {
		return fmt.Errorf("failed to create dataset index: %w", err)
	}
	return nil
}

// SaveExamples appends examples to a dataset in one transaction, after any
// rows the dataset already holds.
func (s *ExampleStore) SaveExamples(dataset string, examples []collate.Example) error {
	if len(examples) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be a no-op if transaction is committed

	var next int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(position)+1, 0) FROM examples WHERE dataset = ?", dataset,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to find next position: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO examples (id, dataset, position, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ex := range examples {
		payload, err := json.Marshal(toRecord(ex))
		if err != nil {
			return fmt.Errorf("failed to encode example %d: %w", i, err)
		}
		if _, err := stmt.Exec(uuid.New().String(), dataset, next+i, string(payload)); err != nil {
			return fmt.Errorf("failed to insert example %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Saved examples", "dataset", dataset, "count", len(examples))
	return nil
}

// LoadExamples returns a dataset's examples in insertion order.
func (s *ExampleStore) LoadExamples(dataset string) ([]collate.Example, error) {
	rows, err := s.db.Query(
		"SELECT payload FROM examples WHERE dataset = ? ORDER BY position", dataset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset %s: %w", dataset, err)
	}
	defer rows.Close()

	var out []collate.Example
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan example row: %w", err)
		}
		var rec record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode example payload: %w", err)
		}
		out = append(out, fromRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dataset %s: %w", dataset, err)
	}
	return out, nil
}

// Count returns the number of examples stored for a dataset.
func (s *ExampleStore) Count(dataset string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM examples WHERE dataset = ?", dataset,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count dataset %s: %w", dataset, err)
	}
	return n, nil
}

// Datasets lists the stored dataset names.
func (s *ExampleStore) Datasets() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT dataset FROM examples ORDER BY dataset")
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dataset name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *ExampleStore) Close() error {
	return s.db.Close()
}

func toRecord(ex collate.Example) record {
	rec := record{
		InputIDs:          ex.InputIDs,
		AttentionMask:     ex.AttentionMask,
		Labels:            ex.Labels,
		SpecialTokensMask: ex.SpecialTokensMask,
	}
	if ex.Target != nil {
		rec.TargetValue = ex.Target.Value
		rec.TargetNamed = ex.Target.Named
	}
	return rec
}

func fromRecord(rec record) collate.Example {
	ex := collate.Example{
		InputIDs:          rec.InputIDs,
		AttentionMask:     rec.AttentionMask,
		Labels:            rec.Labels,
		SpecialTokensMask: rec.SpecialTokensMask,
	}
	if rec.TargetValue != nil || rec.TargetNamed != nil {
		ex.Target = &collate.Target{Value: rec.TargetValue, Named: rec.TargetNamed}
	}
	return ex
}
