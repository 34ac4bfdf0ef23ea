package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingDB struct {
	queries []string
}

func (r *recordingDB) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, query)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingDB) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	r.queries = append(r.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (r *recordingDB) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	r.queries = append(r.queries, query)
	return nil, errors.New("not implemented")
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	db := &recordingDB{}
	runner := NewSQLRunner(db, zerolog.Nop())

	query := "--sql 0b6d3c51-5a8e-4f73-9a51-2f0e2f3f1c11\nUPDATE projects SET name = $1"
	tag, err := runner.Exec(context.Background(), query, "x")
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d, want 1", tag.RowsAffected())
	}
	if len(db.queries) != 1 || db.queries[0] != "UPDATE projects SET name = $1" {
		t.Fatalf("forwarded query = %#v", db.queries)
	}
}

func TestSQLRunnerRejectsMissingMarker(t *testing.T) {
	db := &recordingDB{}
	runner := NewSQLRunner(db, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "DELETE FROM projects"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec error = %v, want ErrMissingMarker", err)
	}
	var id string
	err := runner.QueryRow(context.Background(), "SELECT 1").Scan(&id)
	if !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow error = %v, want ErrMissingMarker", err)
	}
	if len(db.queries) != 0 {
		t.Fatalf("unmarked statements must not reach the database")
	}
}

func TestSQLRunnerQueryRowNoRows(t *testing.T) {
	runner := NewSQLRunner(&recordingDB{}, zerolog.Nop())
	var id string
	err := runner.QueryRow(context.Background(), "--sql 0b6d3c51-5a8e-4f73-9a51-2f0e2f3f1c11\nSELECT id FROM projects").Scan(&id)
	if !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
}
