package http

import (
	"net/http"

	"todoapi/internal/http/handler"
	"todoapi/internal/http/middleware"
)

func NewRouter(todoHandler *handler.TodoHandler, authHandler *handler.AuthHandler, secret []byte) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(secret)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		authHandler.Register(w, r)
	})

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		authHandler.Login(w, r)
	})

	// /todos (list, create)
	mux.Handle("/todos", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			todoHandler.List(w, r)
		case http.MethodPost:
			todoHandler.Create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})))

	// /todos/{id}, /todos/sync, /todos/users/{userId}/can-add-incomplete
	mux.Handle("/todos/", auth(http.HandlerFunc(todoHandler.ServeSubpath)))

	return middleware.CORS(middleware.RequestID(mux))
}
