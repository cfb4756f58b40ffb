package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"

	"todoapi/internal/config"
	"todoapi/internal/db"
	"todoapi/internal/feed"
	apihttp "todoapi/internal/http"
	"todoapi/internal/http/handler"
	"todoapi/internal/repository/sqlstore"
	"todoapi/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	conn, err := openDB(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	defer conn.Close()

	log.Println("database connected", "driver", cfg.Driver)

	if err := db.Migrate(ctx, conn, cfg.Driver); err != nil {
		log.Fatal(err)
	}

	todoRepo := sqlstore.NewTodoRepository(conn, cfg.Driver)
	userRepo := sqlstore.NewUserRepository(conn)

	if cfg.Seed {
		if err := seed(ctx, todoRepo, userRepo); err != nil {
			log.Fatal(err)
		}
	}

	todoService := service.NewTodoService(todoRepo, feed.NewClient(cfg.FeedURL))
	userService := service.NewUserService(userRepo, []byte(cfg.JWTSecret))

	router := apihttp.NewRouter(
		handler.NewTodoHandler(todoService),
		handler.NewAuthHandler(userService),
		[]byte(cfg.JWTSecret),
	)

	log.Println("api listening on", cfg.Addr)

	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal(err)
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Driver == db.DriverPostgres {
		return db.NewPostgres(cfg.DSN)
	}

	return db.NewSQLite(ctx, cfg.DSN)
}
