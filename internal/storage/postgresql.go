// Package storage реализует хранилище данных магазина на основе PostgreSQL:
// учётные записи, профили, каталог, подписки и продажи с позициями.
// Ошибки нарушения ограничений БД приводятся к ConstraintError,
// отсутствие строки: к ErrNotFound.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound строка не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConstraint операция нарушила ограничение схемы.
	ErrConstraint = errors.New("constraint violation")
	// ErrSubscriptionInactive подписка владельца не разрешает продажи.
	ErrSubscriptionInactive = errors.New("subscription inactive")
)

// ConstraintError описывает нарушенное ограничение схемы.
type ConstraintError struct {
	Code       string // SQLSTATE
	Constraint string // имя ограничения, если известно
	Message    string
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint %s violated: %s", e.Constraint, e.Message)
	}
	return "constraint violated: " + e.Message
}

// Is позволяет сравнивать через errors.Is(err, ErrConstraint).
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// querier общий интерфейс *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table subscriptions query error: %w", err)
	}
	if !exists {
		return errors.New("required table subscriptions missing")
	}
	return nil
}

// InTx выполняет fn в одной транзакции. Любая ошибка fn откатывает все изменения.
func (s *Storage) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	const op = "storage.InTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// classify приводит ошибки драйвера к ошибкам пакета.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation,
			pgerrcode.CheckViolation,
			pgerrcode.ForeignKeyViolation,
			pgerrcode.NotNullViolation,
			pgerrcode.InvalidTextRepresentation,
			pgerrcode.NumericValueOutOfRange:
			return &ConstraintError{
				Code:       pgErr.Code,
				Constraint: pgErr.ConstraintName,
				Message:    pgErr.Message,
			}
		}
	}
	return err
}

// wrap добавляет имя операции к классифицированной ошибке.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, classify(err))
}

// affected проверяет, что команда затронула строку.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
