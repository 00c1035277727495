package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/txscope/txscope/pkg/txn"
)

// SQLExecutor defines the interface for executing SQL queries.
// Both *sql.DB and *sql.Tx satisfy it, so a repository works the same
// inside and outside a transaction boundary.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// EntityMapper defines how to map between entities and database rows
type EntityMapper[T any, ID comparable] interface {
	// ToRow converts an entity to column names and values for INSERT/UPDATE
	ToRow(entity *T) (columns []string, values []interface{}, err error)

	// FromRow scans a database row into an entity
	FromRow(rows *sql.Rows) (*T, error)

	// GetID extracts the ID from an entity
	GetID(entity *T) ID
}

// SQLCrudRepository implements CRUD operations against a SQL-backed
// transaction resource. Every operation resolves its executor through the
// boundary manager's registry at call time, so the repository needs no
// per-transaction wiring.
type SQLCrudRepository[T any, ID comparable] struct {
	resource  txn.Resource
	tableName string
	idColumn  string
	mapper    EntityMapper[T, ID]
	dialect   dialect
}

// NewSQLCrudRepository creates a repository bound to a SQL transaction
// resource. The resource's accessors must satisfy SQLExecutor.
func NewSQLCrudRepository[T any, ID comparable](
	resource txn.Resource,
	tableName string,
	idColumn string,
	mapper EntityMapper[T, ID],
) (*SQLCrudRepository[T, ID], error) {
	if resource == nil {
		return nil, txn.ErrResourceUnbound
	}
	if _, ok := resource.DefaultAccessor().(SQLExecutor); !ok {
		return nil, fmt.Errorf("resource %s does not provide a SQL accessor", resource.Name())
	}
	return &SQLCrudRepository[T, ID]{
		resource:  resource,
		tableName: tableName,
		idColumn:  idColumn,
		mapper:    mapper,
		dialect:   dialectFor(resource.Kind()),
	}, nil
}

// executor resolves the SQL executor for the calling chain.
func (r *SQLCrudRepository[T, ID]) executor(ctx context.Context) SQLExecutor {
	return txn.ResolveAccessor(ctx, r.resource).(SQLExecutor)
}

// Create inserts a new entity into the database
func (r *SQLCrudRepository[T, ID]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}

	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to map entity to row: %w", err)
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = r.dialect.placeholder(i + 1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := r.executor(ctx).ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	return nil
}

// FindByID retrieves an entity by its ID
func (r *SQLCrudRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", r.tableName, r.idColumn, r.dialect.placeholder(1))

	rows, err := r.executor(ctx).QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, sql.ErrNoRows
	}

	entity, err := r.mapper.FromRow(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	return entity, nil
}

// FindAll retrieves entities matching the query options with support for
// filtering, sorting, and pagination. Filters are combined with AND logic.
func (r *SQLCrudRepository[T, ID]) FindAll(ctx context.Context, opts QueryOptions) ([]T, error) {
	query := fmt.Sprintf("SELECT * FROM %s", r.tableName)
	args := []interface{}{}
	argIndex := 1

	if len(opts.Filter) > 0 {
		whereClauses := []string{}
		for field, value := range opts.Filter {
			whereClauses = append(whereClauses, fmt.Sprintf("%s = %s", field, r.dialect.placeholder(argIndex)))
			args = append(args, value)
			argIndex++
		}
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	if opts.Sort.Field != "" {
		order := "ASC"
		if opts.Sort.Order == SortDesc {
			order = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", opts.Sort.Field, order)
	}

	if opts.Pagination.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", r.dialect.placeholder(argIndex), r.dialect.placeholder(argIndex+1))
		args = append(args, opts.Pagination.Limit(), opts.Pagination.Offset())
	}

	rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := []T{}
	for rows.Next() {
		entity, err := r.mapper.FromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entities, nil
}

// Count returns the number of entities matching the filter
func (r *SQLCrudRepository[T, ID]) Count(ctx context.Context, filter Filter) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", r.tableName)
	args := []interface{}{}
	argIndex := 1

	if len(filter) > 0 {
		whereClauses := []string{}
		for field, value := range filter {
			whereClauses = append(whereClauses, fmt.Sprintf("%s = %s", field, r.dialect.placeholder(argIndex)))
			args = append(args, value)
			argIndex++
		}
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	var count int64
	if err := r.executor(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}

	return count, nil
}

// Update updates an existing entity in the database.
// Returns sql.ErrNoRows if the entity doesn't exist.
func (r *SQLCrudRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}

	id := r.mapper.GetID(entity)
	columns, values, err := r.mapper.ToRow(entity)
	if err != nil {
		return fmt.Errorf("failed to map entity to row: %w", err)
	}

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = %s", col, r.dialect.placeholder(i+1))
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		r.tableName,
		strings.Join(setClauses, ", "),
		r.idColumn,
		r.dialect.placeholder(len(values)+1),
	)

	values = append(values, id)

	result, err := r.executor(ctx).ExecContext(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete removes an entity from the database by its ID
func (r *SQLCrudRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", r.tableName, r.idColumn, r.dialect.placeholder(1))

	result, err := r.executor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// dialect abstracts placeholder style across backends.
type dialect struct {
	numbered bool
}

func dialectFor(kind txn.Kind) dialect {
	// PostgreSQL uses numbered placeholders; MySQL and SQLite use '?'.
	return dialect{numbered: kind == txn.KindPostgres}
}

func (d dialect) placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
