package main

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	domain "todoapi/internal/domain/model"
	"todoapi/internal/repository"
)

// seed loads demo fixtures for local development: three users, with the
// first sitting exactly at the incomplete-todo ceiling so the business rule
// can be exercised immediately. Runs only against an empty todos table.
func seed(ctx context.Context, todos repository.TodoRepository, users repository.UserRepository) error {
	_, total, err := todos.List(ctx, domain.ListParams{Page: 1, PageSize: 1})
	if err != nil {
		return err
	}

	if total > 0 {
		log.Println("seed skipped, todos table not empty", "count", total)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	// fixtures attach to whatever ids the users actually have, including
	// users registered before a re-seed
	userIDs := make(map[string]int64, 3)

	for _, username := range []string{"alice", "bob", "carol"} {
		user, err := users.Create(ctx, &domain.User{
			Username:     username,
			PasswordHash: string(hash),
			CreatedAt:    now,
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			user, err = users.GetByUsername(ctx, username)
		}

		if err != nil {
			return err
		}

		userIDs[username] = user.ID
	}

	fixtures := []struct {
		owner     string
		title     string
		completed bool
	}{
		// alice at the ceiling, plus one complete todo to toggle
		{"alice", "Buy milk", false},
		{"alice", "Study Go", false},
		{"alice", "Review code", false},
		{"alice", "Test the API", false},
		{"alice", "Document the project", false},
		{"alice", "Set up the repository", true},

		{"bob", "Do exercises", false},
		{"bob", "Read a technical book", true},
		{"carol", "Configure environment", false},
		{"carol", "Planning meeting", true},
	}

	for _, f := range fixtures {
		_, err := todos.Create(ctx, &domain.Todo{
			UserID:    userIDs[f.owner],
			Title:     f.title,
			Completed: f.completed,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}

	log.Println("seeded demo data", "users", len(userIDs), "todos", len(fixtures))

	return nil
}
