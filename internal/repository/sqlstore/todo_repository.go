// Package sqlstore implements the repository interfaces on database/sql.
// The SQL is kept portable across the postgres (pgx) and sqlite drivers:
// ordinal $N placeholders in first-use order, no server-side clock, and
// RETURNING on inserts instead of LastInsertId.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"todoapi/internal/db"
	domain "todoapi/internal/domain/model"
	"todoapi/internal/repository"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type TodoRepository struct {
	db     *sql.DB // nil when transaction-scoped
	q      querier
	driver string
}

func NewTodoRepository(db *sql.DB, driver string) *TodoRepository {
	return &TodoRepository{db: db, q: db, driver: driver}
}

const todoColumns = "id, user_id, title, completed, created_at, updated_at"

func scanTodo(row interface{ Scan(...any) error }) (*domain.Todo, error) {
	todo := &domain.Todo{}

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return todo, nil
}

// Create inserts the todo and returns the stored row. A zero ID lets the
// store assign one; a non-zero ID (feed import) is inserted as given.
func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	var row *sql.Row

	if todo.ID != 0 {
		query := `
			INSERT INTO todos (id, user_id, title, completed, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + todoColumns

		row = r.q.QueryRowContext(ctx, query, todo.ID, todo.UserID, todo.Title, todo.Completed, todo.CreatedAt)
	} else {
		query := `
			INSERT INTO todos (user_id, title, completed, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING ` + todoColumns

		row = r.q.QueryRowContext(ctx, query, todo.UserID, todo.Title, todo.Completed, todo.CreatedAt)
	}

	created, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	return created, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	todo, err := scanTodo(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}

	return todo, nil
}

// sortColumns whitelists the ORDER BY targets; anything not listed falls
// back to id.
var sortColumns = map[string]string{
	domain.SortID:        "id",
	domain.SortTitle:     "title",
	domain.SortUserID:    "user_id",
	domain.SortCompleted: "completed",
}

// List returns one page of the filtered set plus the total count of the
// filtered set before pagination. Ordering is by the resolved sort column
// with ascending id as the tie break, so repeated calls page deterministically.
func (r *TodoRepository) List(ctx context.Context, params domain.ListParams) ([]*domain.Todo, int, error) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Title != "" {
		where = append(where, "LOWER(title) LIKE '%' || "+arg(strings.ToLower(params.Title))+" || '%'")
	}

	if params.UserID != nil {
		where = append(where, "user_id = "+arg(*params.UserID))
	}

	if params.Completed != nil {
		where = append(where, "completed = "+arg(*params.Completed))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int

	err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos"+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count todos: %w", err)
	}

	column, ok := sortColumns[strings.ToLower(params.Sort)]
	if !ok {
		column = "id"
	}

	direction := "ASC"
	if strings.ToLower(params.Order) == domain.OrderDesc {
		direction = "DESC"
	}

	query := "SELECT " + todoColumns + " FROM todos" + whereClause +
		" ORDER BY " + column + " " + direction + ", id ASC" +
		" LIMIT " + arg(params.PageSize) + " OFFSET " + arg((params.Page-1)*params.PageSize)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}

	defer rows.Close()

	todos := []*domain.Todo{}

	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan todo: %w", err)
		}

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}

	return todos, total, nil
}

func (r *TodoRepository) SetCompleted(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	query := `
		UPDATE todos
		SET completed = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + todoColumns

	updated, err := scanTodo(r.q.QueryRowContext(ctx, query, todo.Completed, todo.UpdatedAt, todo.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", todo.ID, err)
	}

	return updated, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// CountIncomplete is the single counting primitive the ceiling rule consults.
// Its WHERE clause matches what List applies for the equivalent filter.
func (r *TodoRepository) CountIncomplete(ctx context.Context, userID int64) (int, error) {
	var count int

	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE user_id = $1 AND completed = $2`,
		userID, false,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count incomplete for user %d: %w", userID, err)
	}

	return count, nil
}

func (r *TodoRepository) ExistingIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM todos`)
	if err != nil {
		return nil, fmt.Errorf("list todo ids: %w", err)
	}

	defer rows.Close()

	ids := map[int64]struct{}{}

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan todo id: %w", err)
		}

		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todo ids: %w", err)
	}

	return ids, nil
}

// ResetIDSequence realigns the id allocator with the table contents after
// explicit-id inserts. Postgres identity sequences are not advanced by
// explicit ids, so without this the next default insert would draw an id
// that is already taken; sqlite's AUTOINCREMENT tracks explicit ids itself.
func (r *TodoRepository) ResetIDSequence(ctx context.Context) error {
	if r.driver != db.DriverPostgres {
		return nil
	}

	_, err := r.q.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('todos', 'id'), (SELECT COALESCE(MAX(id), 1) FROM todos))`)
	if err != nil {
		return fmt.Errorf("reset todo id sequence: %w", err)
	}

	return nil
}

// InTx runs fn against a transaction-scoped repository. Calling InTx on a
// repository that is already transaction-scoped reuses the open transaction.
func (r *TodoRepository) InTx(ctx context.Context, fn func(repository.TodoRepository) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin txn: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&TodoRepository{q: tx, driver: r.driver}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit txn: %w", err)
	}

	committed = true

	return nil
}
