package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	readings "bptracker/internal/readings/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

func openSQLite(t *testing.T) *ReadingRepository {
	t.Helper()
	db, err := sql.Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewReadingRepository(db, DriverSQLite)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return repo
}

func TestReadingRepository_RoundTripOrdered(t *testing.T) {
	repo := openSQLite(t)
	exerciseRoundTrip(t, repo)
}

func TestReadingRepository_DeleteMissing(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	stored, err := repo.Insert(ctx, readings.Reading{Systolic: 120, Diastolic: 80, MeasuredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, stored.ID+100); !errors.Is(err, readings.ErrReadingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Get(ctx, stored.ID+100); !errors.Is(err, readings.ErrReadingNotFound) {
		t.Fatalf("expected not found on get, got %v", err)
	}
	list, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("store changed after failed delete: %d rows", len(list))
	}

	if err := repo.Delete(ctx, stored.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err = repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d", len(list))
	}
}

func TestReadingRepository_UnsupportedDriver(t *testing.T) {
	if _, err := NewReadingRepository(&sql.DB{}, "mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if _, err := NewReadingRepository(nil, DriverSQLite); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestReadingRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo, err := NewReadingRepository(db, DriverPostgres)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	_, _ = db.ExecContext(ctx, "DELETE FROM bp_readings")
	exerciseRoundTrip(t, repo)
}

func exerciseRoundTrip(t *testing.T, repo *ReadingRepository) {
	t.Helper()
	ctx := context.Background()
	later := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	// inserted out of order on purpose; the query orders
	if _, err := repo.Insert(ctx, readings.Reading{Systolic: 130, Diastolic: 85, MeasuredAt: later}); err != nil {
		t.Fatalf("insert later: %v", err)
	}
	first, err := repo.Insert(ctx, readings.Reading{Systolic: 120, Diastolic: 80, MeasuredAt: earlier})
	if err != nil {
		t.Fatalf("insert earlier: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	list, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
	if list[0].Systolic != 120 || list[0].Diastolic != 80 || !list[0].MeasuredAt.Equal(earlier) {
		t.Fatalf("unexpected first reading: %+v", list[0])
	}
	if list[1].Systolic != 130 || list[1].Diastolic != 85 || !list[1].MeasuredAt.Equal(later) {
		t.Fatalf("unexpected second reading: %+v", list[1])
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Systolic != 120 || !got.MeasuredAt.Equal(earlier) {
		t.Fatalf("unexpected reading: %+v", got)
	}
}
