package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/services"
)

func registerBody() map[string]any {
	return map[string]any{
		"username": "filmfan42",
		"email":    "fan@example.com",
		"password": "hunter2hunter2",
	}
}

func TestRegister_OK(t *testing.T) {
	users := &stubUsers{
		registerFn: func(ctx context.Context, in services.RegisterInput) (*domain.User, error) {
			if in.Username != "filmfan42" || in.Password != "hunter2hunter2" {
				t.Fatalf("input not forwarded: %+v", in)
			}
			return &domain.User{ID: "u-new", Username: in.Username, Email: in.Email}, nil
		},
	}
	r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

	w := doJSON(t, r, http.MethodPost, "/users", registerBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	// The password hash never leaves the server.
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response leaks password material: %s", w.Body.String())
	}
}

func TestRegister_BindingRejects(t *testing.T) {
	r := newRouter(New(&stubMovies{}, &stubReviews{}, &stubUsers{}), nil)

	for name, body := range map[string]map[string]any{
		"missing username": {"email": "a@b.c", "password": "longenough"},
		"bad email":        {"username": "u", "email": "not-an-email", "password": "longenough"},
		"short password":   {"username": "u", "email": "a@b.c", "password": "short"},
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/users", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"username taken", services.ErrUsernameTaken, http.StatusConflict, ErrCodeConflict},
		{"bad name", services.ErrInvalidName, http.StatusBadRequest, ErrCodeBadRequest},
		{"backend failure", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUsers{
				registerFn: func(ctx context.Context, in services.RegisterInput) (*domain.User, error) {
					return nil, tc.err
				},
			}
			r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

			w := doJSON(t, r, http.MethodPost, "/users", registerBody())
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
			if e := decodeError(t, w); e.Code != tc.wantCode {
				t.Fatalf("code = %q; want %q", e.Code, tc.wantCode)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	users := &stubUsers{
		authFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			if username == "fan" && password == "right" {
				return &domain.User{ID: "u1", Username: username}, nil
			}
			return nil, services.ErrInvalidCredentials
		},
	}
	r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

	w := doJSON(t, r, http.MethodPost, "/login", map[string]any{"username": "fan", "password": "right"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var u domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil || u.ID != "u1" {
		t.Fatalf("decode: %v u=%+v", err, u)
	}

	w = doJSON(t, r, http.MethodPost, "/login", map[string]any{"username": "fan", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/login", map[string]any{"username": "fan"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: status = %d", w.Code)
	}
}

func TestListUsers(t *testing.T) {
	users := &stubUsers{
		listFn: func(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
			return []domain.User{{ID: "u1", Username: "alice"}}, 1, nil
		},
	}
	r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

	w := doJSON(t, r, http.MethodGet, "/users", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Username != "alice" {
		t.Fatalf("unexpected users: %+v", resp.Users)
	}
}

func TestGetUser(t *testing.T) {
	users := &stubUsers{
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id == "known" {
				return &domain.User{ID: id, Username: "alice"}, nil
			}
			return nil, services.ErrUserNotFound
		},
	}
	r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

	w := doJSON(t, r, http.MethodGet, "/users/known", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp UserProfileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", resp)
	}
	// Stub services expose no DB, so the reviews default to empty, not null.
	if resp.Reviews == nil {
		t.Fatalf("reviews must be an empty array, not null")
	}

	if w := doJSON(t, r, http.MethodGet, "/users/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	id := uuid.NewString()
	actor := &domain.User{ID: id}
	users := &stubUsers{
		updateFn: func(ctx context.Context, a *domain.User, userID string, in services.ProfileInput) error {
			if a == nil || a.ID != actor.ID || userID != id {
				t.Fatalf("args not forwarded: actor=%+v id=%q", a, userID)
			}
			return nil
		},
	}
	r := newRouter(New(&stubMovies{}, &stubReviews{}, users), actor)

	body := map[string]any{"username": "renamed", "email": "renamed@example.com"}
	w := doJSON(t, r, http.MethodPut, "/users/"+id, body)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/users/not-a-uuid", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d", w.Code)
	}
}

func TestUpdateUser_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"someone else's profile", services.ErrNotProfileOwner, http.StatusForbidden},
		{"anonymous", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"username taken", services.ErrUsernameTaken, http.StatusConflict},
		{"not found", services.ErrUserNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUsers{
				updateFn: func(ctx context.Context, a *domain.User, userID string, in services.ProfileInput) error {
					return tc.err
				},
			}
			r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

			body := map[string]any{"username": "x", "email": "x@example.com"}
			w := doJSON(t, r, http.MethodPut, "/users/"+uuid.NewString(), body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"owner", nil, http.StatusNoContent},
		{"someone else's account", services.ErrNotProfileOwner, http.StatusForbidden},
		{"anonymous", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"not found", services.ErrUserNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUsers{
				deleteFn: func(ctx context.Context, a *domain.User, userID string) error {
					return tc.err
				},
			}
			r := newRouter(New(&stubMovies{}, &stubReviews{}, users), nil)

			w := doJSON(t, r, http.MethodDelete, "/users/some-id", nil)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
		})
	}
}
