package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"todoapi/internal/db"
	domain "todoapi/internal/domain/model"
	"todoapi/internal/feed"
	apihttp "todoapi/internal/http"
	"todoapi/internal/http/handler"
	"todoapi/internal/repository/sqlstore"
	"todoapi/internal/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testAPI struct {
	srv   *httptest.Server
	repo  *sqlstore.TodoRepository
	token string
	user  int64
}

func newTestAPI(t *testing.T, feedURL string) *testAPI {
	t.Helper()

	conn, err := db.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	todoRepo := sqlstore.NewTodoRepository(conn, db.DriverSQLite)
	userRepo := sqlstore.NewUserRepository(conn)

	router := apihttp.NewRouter(
		handler.NewTodoHandler(service.NewTodoService(todoRepo, feed.NewClient(feedURL))),
		handler.NewAuthHandler(service.NewUserService(userRepo, testSecret)),
		testSecret,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	api := &testAPI{srv: srv, repo: todoRepo}
	api.register(t, "alice", "password")

	return api
}

func (a *testAPI) register(t *testing.T, username, password string) {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)

	resp, err := http.Post(a.srv.URL+"/auth/register", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(a.srv.URL+"/auth/login", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login handler.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	a.token = login.Token
	a.user = login.User.ID
}

func (a *testAPI) do(t *testing.T, method, path string, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func (a *testAPI) fill(t *testing.T, userID int64, incomplete, complete int) {
	t.Helper()

	for i := 0; i < incomplete; i++ {
		_, err := a.repo.Create(context.Background(), &domain.Todo{
			UserID: userID, Title: fmt.Sprintf("open %d", i+1), CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	for i := 0; i < complete; i++ {
		_, err := a.repo.Create(context.Background(), &domain.Todo{
			UserID: userID, Title: fmt.Sprintf("done %d", i+1), Completed: true, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
}

func Test_Todos_Require_Authentication(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	resp, err := http.Get(api.srv.URL + "/todos")
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_Create_And_Get_Todo(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	resp := api.do(t, http.MethodPost, "/todos", `{"title":"Buy milk","completed":false}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[domain.Todo](t, resp)
	require.Equal(t, api.user, created.UserID)
	require.Equal(t, "Buy milk", created.Title)

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/todos/%d", created.ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[domain.Todo](t, resp)
	require.Equal(t, created.ID, got.ID)
}

func Test_Get_Unknown_Todo_Returns_404(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	resp := api.do(t, http.MethodGet, "/todos/999", "")

	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_List_Applies_Defaults_And_Params(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")
	api.fill(t, api.user, 4, 1)

	resp := api.do(t, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[domain.ListResult](t, resp)
	require.Equal(t, 1, result.Page)
	require.Equal(t, 10, result.PageSize)
	require.Equal(t, 5, result.TotalCount)
	require.Equal(t, 1, result.TotalPages)

	resp = api.do(t, http.MethodGet, "/todos?completed=true", "")
	result = decode[domain.ListResult](t, resp)
	require.Equal(t, 1, result.TotalCount)

	resp = api.do(t, http.MethodGet, "/todos?title=OPEN&pageSize=3&page=2", "")
	result = decode[domain.ListResult](t, resp)
	require.Equal(t, 4, result.TotalCount)
	require.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Items, 1)
}

func Test_List_Rejects_Malformed_Params(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	for _, path := range []string{
		"/todos?page=banana",
		"/todos?pageSize=banana",
		"/todos?userId=banana",
		"/todos?completed=banana",
		"/todos?page=0",
	} {
		resp := api.do(t, http.MethodGet, path, "")
		resp.Body.Close()
		require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "path %s", path)
	}
}

func Test_Update_At_Ceiling_Returns_Business_Rule_Error(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")
	api.fill(t, api.user, 5, 1)

	resp := api.do(t, http.MethodGet, "/todos?completed=true", "")
	result := decode[domain.ListResult](t, resp)
	require.Len(t, result.Items, 1)

	target := result.Items[0]

	resp = api.do(t, http.MethodPut, fmt.Sprintf("/todos/%d", target.ID), `{"completed":false}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	require.Contains(t, body["error"], fmt.Sprintf("user %d", api.user))
	require.Contains(t, body["error"], "5")

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/todos/%d", target.ID), "")
	got := decode[domain.Todo](t, resp)
	require.True(t, got.Completed)
}

func Test_Update_With_Capacity_Succeeds(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")
	api.fill(t, api.user, 4, 1)

	resp := api.do(t, http.MethodGet, "/todos?completed=true", "")
	result := decode[domain.ListResult](t, resp)
	target := result.Items[0]

	resp = api.do(t, http.MethodPut, fmt.Sprintf("/todos/%d", target.ID), `{"completed":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[domain.Todo](t, resp)
	require.False(t, updated.Completed)
	require.NotNil(t, updated.UpdatedAt)
}

func Test_Delete_Todo(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")
	api.fill(t, api.user, 1, 0)

	resp := api.do(t, http.MethodGet, "/todos", "")
	result := decode[domain.ListResult](t, resp)
	id := result.Items[0].ID

	resp = api.do(t, http.MethodDelete, fmt.Sprintf("/todos/%d", id), "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, fmt.Sprintf("/todos/%d", id), "")
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_CanAddIncomplete_Endpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")
	api.fill(t, api.user, 5, 0)

	resp := api.do(t, http.MethodGet, fmt.Sprintf("/todos/users/%d/can-add-incomplete", api.user), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[handler.CanAddResponse](t, resp)
	require.Equal(t, api.user, body.UserID)
	require.False(t, body.CanAdd)
	require.Equal(t, 5, body.MaxIncomplete)

	resp = api.do(t, http.MethodGet, "/todos/users/999/can-add-incomplete", "")
	body = decode[handler.CanAddResponse](t, resp)
	require.True(t, body.CanAdd)
}

func Test_Sync_Endpoint_Reports_Inserted_Count(t *testing.T) {
	t.Parallel()

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]feed.Item{
			{ID: 1, UserID: 9, Title: "feed one", Completed: false},
			{ID: 2, UserID: 9, Title: "feed two", Completed: true},
		})
	}))
	t.Cleanup(feedSrv.Close)

	api := newTestAPI(t, feedSrv.URL)

	resp := api.do(t, http.MethodPost, "/todos/sync", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[handler.SyncResponse](t, resp)
	require.Equal(t, 2, body.Count)
	require.Equal(t, "Synced 2 new todos", body.Message)

	// imported todos belong to the caller, not the feed's owner hint
	resp = api.do(t, http.MethodGet, fmt.Sprintf("/todos?userId=%d", api.user), "")
	result := decode[domain.ListResult](t, resp)
	require.Equal(t, 2, result.TotalCount)
}

func Test_Sync_Endpoint_Maps_Feed_Failure_To_502(t *testing.T) {
	t.Parallel()

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(feedSrv.Close)

	api := newTestAPI(t, feedSrv.URL)

	resp := api.do(t, http.MethodPost, "/todos/sync", "")
	resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func Test_Register_Duplicate_Username_Returns_400(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	body := `{"username":"alice","password":"other"}`

	resp, err := http.Post(api.srv.URL+"/auth/register", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_Login_Wrong_Password_Returns_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, "")

	body := `{"username":"alice","password":"nope"}`

	resp, err := http.Post(api.srv.URL+"/auth/login", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)

	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
