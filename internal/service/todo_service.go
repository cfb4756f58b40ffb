package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "todoapi/internal/domain/model"
	"todoapi/internal/feed"
	"todoapi/internal/repository"
)

// TodoService owns the todo read path (filter/sort/page) and the write path
// (create/update/delete plus the incomplete-todo ceiling). The ceiling check
// and the write it guards run inside one store transaction.
type TodoService struct {
	repo repository.TodoRepository
	feed *feed.Client

	// The import is not safe to run concurrently with itself (both runs
	// would see the same missing ids and race on the inserts).
	syncMu sync.Mutex
}

func NewTodoService(repo repository.TodoRepository, feedClient *feed.Client) *TodoService {
	return &TodoService{repo: repo, feed: feedClient}
}

func (s *TodoService) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	if params.Page < 1 {
		return nil, &domain.ValidationError{Field: "page", Reason: "must be a positive integer"}
	}

	if params.PageSize < 1 {
		return nil, &domain.ValidationError{Field: "pageSize", Reason: "must be a positive integer"}
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize

	return &domain.ListResult{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
		Items:      items,
	}, nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	return s.repo.GetByID(ctx, id)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	if len(title) > domain.MaxTitleLength {
		return &domain.ValidationError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", domain.MaxTitleLength)}
	}

	return nil
}

// Create persists a new todo for userID. An incomplete todo is only admitted
// while the user is below the ceiling; the check and the insert share one
// transaction so concurrent creates cannot jointly exceed it.
func (s *TodoService) Create(ctx context.Context, userID int64, title string, completed bool) (*domain.Todo, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	var created *domain.Todo

	err := s.repo.InTx(ctx, func(tx repository.TodoRepository) error {
		if !completed {
			count, err := tx.CountIncomplete(ctx, userID)
			if err != nil {
				return err
			}

			if count >= domain.MaxIncomplete {
				return domain.NewLimitError(userID)
			}
		}

		todo, err := tx.Create(ctx, &domain.Todo{
			UserID:    userID,
			Title:     title,
			Completed: completed,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		created = todo

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update sets the completed flag. Marking a todo incomplete is rejected only
// when it is currently complete and the owner's other todos already meet the
// ceiling; re-marking an already-incomplete todo always succeeds, since the
// count it participates in cannot grow.
func (s *TodoService) Update(ctx context.Context, id int64, completed bool) (*domain.Todo, error) {
	var updated *domain.Todo

	err := s.repo.InTx(ctx, func(tx repository.TodoRepository) error {
		todo, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !completed && todo.Completed {
			count, err := tx.CountIncomplete(ctx, todo.UserID)
			if err != nil {
				return err
			}

			if count >= domain.MaxIncomplete {
				return domain.NewLimitError(todo.UserID)
			}
		}

		now := time.Now().UTC()
		todo.Completed = completed
		todo.UpdatedAt = &now

		todo, err = tx.SetCompleted(ctx, todo)
		if err != nil {
			return err
		}

		updated = todo

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *TodoService) CountIncomplete(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountIncomplete(ctx, userID)
}

// CanAddIncomplete is a side-effect-free preflight of the ceiling rule.
func (s *TodoService) CanAddIncomplete(ctx context.Context, userID int64) (bool, error) {
	count, err := s.repo.CountIncomplete(ctx, userID)
	if err != nil {
		return false, err
	}

	return count < domain.MaxIncomplete, nil
}

// Sync imports feed todos whose ids are not present locally, attributing
// them to the calling user. Imports bypass the ceiling and are written in a
// single transaction, so a failure inserts nothing. Returns the number of
// todos inserted.
func (s *TodoService) Sync(ctx context.Context, userID int64) (int, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	items, err := s.feed.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	if len(items) == 0 {
		return 0, nil
	}

	inserted := 0

	err = s.repo.InTx(ctx, func(tx repository.TodoRepository) error {
		existing, err := tx.ExistingIDs(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		for _, item := range items {
			if _, ok := existing[item.ID]; ok {
				continue
			}

			_, err := tx.Create(ctx, &domain.Todo{
				ID:        item.ID,
				UserID:    userID,
				Title:     item.Title,
				Completed: item.Completed,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}

			inserted++
		}

		if inserted > 0 {
			// explicit-id inserts leave the store's id allocator behind
			return tx.ResetIDSequence(ctx)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
