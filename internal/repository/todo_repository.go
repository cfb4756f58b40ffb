package repository

import (
	"context"

	domain "todoapi/internal/domain/model"
)

// TodoRepository is the persistence boundary for todos. InTx runs fn against
// a transaction-scoped repository; the check-then-write sequences that guard
// the incomplete-todo ceiling go through it so concurrent writers for the
// same user cannot jointly exceed the limit.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	GetByID(ctx context.Context, id int64) (*domain.Todo, error)
	List(ctx context.Context, params domain.ListParams) ([]*domain.Todo, int, error)
	SetCompleted(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	Delete(ctx context.Context, id int64) error
	CountIncomplete(ctx context.Context, userID int64) (int, error)
	ExistingIDs(ctx context.Context) (map[int64]struct{}, error)
	ResetIDSequence(ctx context.Context) error
	InTx(ctx context.Context, fn func(TodoRepository) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
