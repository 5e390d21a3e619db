package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sigDB "github.com/gestureconnect/signd/internal/database"
	"github.com/gestureconnect/signd/internal/history/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := sigDB.NewFromEnv(context.Background(), &sigDB.Config{
		FileName: filepath.Join(t.TempDir(), "signd-test.db"),
	})
	if err != nil {
		t.Fatalf("unable open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(context.Background())
	})
	return New(db)
}

func TestAppendAndFindBySession(t *testing.T) {
	db := newTestDB(t)
	records := []model.Record{
		model.NewRecord("s1", "hello", 0.9, time.Now()),
		model.NewRecord("s1", "thanks", 0.8, time.Now()),
		model.NewRecord("s2", "hello", 0.7, time.Now()),
	}

	if err := db.AppendMany(context.Background(), records); err != nil {
		t.Fatalf("calling AppendMany, got: %v, expected: nil", err)
	}

	found, err := db.FindBySession("s1", nil)
	if err != nil {
		t.Fatalf("calling FindBySession, got: %v, expected: nil", err)
	}
	if len(found) != 2 {
		t.Errorf("records for s1 got: %v, expected: 2", len(found))
	}

	count, err := db.CountBySession("s2")
	if err != nil {
		t.Fatalf("calling CountBySession, got: %v, expected: nil", err)
	}
	if count != 1 {
		t.Errorf("count for s2 got: %v, expected: 1", count)
	}
}

func TestFindBySessionFilter(t *testing.T) {
	db := newTestDB(t)
	old := model.NewRecord("s1", "hello", 0.9, time.Now().Add(-2*time.Hour))
	fresh := model.NewRecord("s1", "thanks", 0.8, time.Now())

	if err := db.AppendMany(context.Background(), []model.Record{old, fresh}); err != nil {
		t.Fatalf("calling AppendMany, got: %v, expected: nil", err)
	}

	found, err := db.FindBySession("s1", func(record model.Record) bool {
		return time.Since(record.CreatedAt) > time.Hour
	})
	if err != nil {
		t.Fatalf("calling FindBySession, got: %v, expected: nil", err)
	}
	if len(found) != 1 || found[0].Label != "hello" {
		t.Errorf("filtered records got: %+v, expected only the old record", found)
	}
}

func TestKeys(t *testing.T) {
	db := newTestDB(t)
	if err := db.AppendMany(context.Background(), []model.Record{
		model.NewRecord("s1", "hello", 0.9, time.Now()),
		model.NewRecord("s2", "hello", 0.9, time.Now()),
	}); err != nil {
		t.Fatalf("calling AppendMany, got: %v, expected: nil", err)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("calling Keys, got: %v, expected: nil", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys got: %v, expected: 2", keys)
	}
}

func TestDeleteMany(t *testing.T) {
	db := newTestDB(t)
	records := []model.Record{
		model.NewRecord("s1", "hello", 0.9, time.Now()),
		model.NewRecord("s1", "thanks", 0.8, time.Now()),
	}
	if err := db.AppendMany(context.Background(), records); err != nil {
		t.Fatalf("calling AppendMany, got: %v, expected: nil", err)
	}

	if err := db.DeleteMany(context.Background(), records[:1]); err != nil {
		t.Fatalf("calling DeleteMany, got: %v, expected: nil", err)
	}

	count, err := db.CountBySession("s1")
	if err != nil {
		t.Fatalf("calling CountBySession, got: %v, expected: nil", err)
	}
	if count != 1 {
		t.Errorf("count after delete got: %v, expected: 1", count)
	}
}

func TestDeleteSession(t *testing.T) {
	db := newTestDB(t)
	if err := db.AppendMany(context.Background(), []model.Record{
		model.NewRecord("s1", "hello", 0.9, time.Now()),
		model.NewRecord("s2", "hello", 0.9, time.Now()),
	}); err != nil {
		t.Fatalf("calling AppendMany, got: %v, expected: nil", err)
	}

	if err := db.DeleteSession(context.Background(), "s1"); err != nil {
		t.Fatalf("calling DeleteSession, got: %v, expected: nil", err)
	}

	count, err := db.CountBySession("s1")
	if err != nil {
		t.Fatalf("calling CountBySession, got: %v, expected: nil", err)
	}
	if count != 0 {
		t.Errorf("count after session delete got: %v, expected: 0", count)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("calling Keys, got: %v, expected: nil", err)
	}
	if len(keys) != 1 {
		t.Errorf("keys after session delete got: %v, expected: [s2]", keys)
	}
}
