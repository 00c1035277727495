package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/txscope/txscope/pkg/observability/logger"
	"github.com/txscope/txscope/pkg/txn"
)

func newMockAdapter(t *testing.T) (*MySQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &MySQLAdapter{
		db:     db,
		logger: logger.NewNopLogger(),
		config: Config{Name: "mysql-test"},
	}, mock
}

func TestNewMySQLAdapterRequiresURL(t *testing.T) {
	if _, err := NewMySQLAdapter(Config{}, logger.NewNopLogger()); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

func TestResourceMetadata(t *testing.T) {
	a, _ := newMockAdapter(t)
	if a.Name() != "mysql-test" {
		t.Fatalf("Name() = %q", a.Name())
	}
	if a.Kind() != txn.KindMySQL {
		t.Fatalf("Kind() = %q", a.Kind())
	}
	if a.SupportedIsolation() != nil {
		t.Fatal("MySQL must declare no isolation restriction")
	}
}

func TestExecutorResolution(t *testing.T) {
	a, mock := newMockAdapter(t)

	if a.Executor(context.Background()) != Executor(a.db) {
		t.Fatal("outside a boundary the pool is the executor")
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	m := txn.NewManager()
	err := m.Run(context.Background(), a, txn.Options{}, func(ctx context.Context) error {
		if a.Executor(ctx) == Executor(a.db) {
			t.Fatal("inside a boundary the transaction is the executor")
		}
		return errors.New("forced rollback")
	})
	if err == nil {
		t.Fatal("expected forced error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock expectations: %v", err)
	}
}

func TestJoinedCallsShareOneTransaction(t *testing.T) {
	a, mock := newMockAdapter(t)
	m := txn.NewManager()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := m.Run(context.Background(), a, txn.Options{}, func(ctx context.Context) error {
		if _, err := a.ExecContext(ctx, "INSERT INTO users (id) VALUES (?)", "u1"); err != nil {
			return err
		}
		return m.Run(ctx, a, txn.Options{}, func(ctx context.Context) error {
			_, err := a.ExecContext(ctx, "INSERT INTO users (id) VALUES (?)", "u2")
			return err
		})
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock expectations: %v", err)
	}
}
