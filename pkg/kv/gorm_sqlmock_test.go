package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smith3v/lms-reminder/pkg/kv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGormStore(t *testing.T) (*kv.GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm over sqlmock: %v", err)
	}
	return kv.NewGormStore(gdb), mock
}

func TestGormStoreGetSurfacesDatabaseErrors(t *testing.T) {
	store, mock := newMockGormStore(t)
	mock.ExpectQuery(`SELECT \* FROM "key_values" WHERE "key_values"."key" = \$1`).
		WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "history.v1")
	if err == nil || errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected a database error distinct from ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGormStoreDeleteSurfacesDatabaseErrors(t *testing.T) {
	store, mock := newMockGormStore(t)
	mock.ExpectExec(`DELETE FROM "key_values" WHERE "key_values"."key" = \$1`).
		WithArgs("settings.v1").
		WillReturnError(errors.New("read-only transaction"))

	if err := store.Delete(context.Background(), "settings.v1"); err == nil {
		t.Fatal("expected delete error to be returned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
