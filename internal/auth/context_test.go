package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenxianie/parkctl/internal/api"
	"github.com/zenxianie/parkctl/internal/session"
)

// fakeBackend serves login, profile, and logout for one identity.
type fakeBackend struct {
	mu          sync.Mutex
	user        api.User
	password    string
	loginCalls  int
	logoutCalls int
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.loginCalls++

		var req api.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != b.password {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(api.LoginResponse{Access: "acc-token", Refresh: "ref-token"})
	})

	mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.user)
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.logoutCalls++
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "refresh rejected"})
	})

	return mux
}

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) navigate(route string) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

func (r *routeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.routes))
	copy(out, r.routes)
	return out
}

func newTestContext(t *testing.T, role session.Role, backend *fakeBackend) (*Context, *session.Store, *routeRecorder) {
	t.Helper()

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)

	client := api.New(api.Config{
		BaseURL: server.URL,
		Role:    role,
		Logger:  zerolog.Nop(),
	}, store)

	routes := &routeRecorder{}
	ctx := NewContext(role, store, client, routes.navigate, zerolog.Nop())

	return ctx, store, routes
}

func TestContext_Login(t *testing.T) {
	t.Run("stores the session and loads the identity", func(t *testing.T) {
		backend := &fakeBackend{
			user:     api.User{ID: 1, Username: "kai", Role: "user"},
			password: "hunter2",
		}
		authCtx, store, routes := newTestContext(t, session.RoleUser, backend)

		user, err := authCtx.Login(context.Background(), "kai@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "kai", user.Username)
		assert.Equal(t, StatusAuthenticated, authCtx.Status())
		assert.True(t, authCtx.IsAuthenticated())

		sess, err := store.Get(session.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, "acc-token", sess.Access)
		assert.Equal(t, "ref-token", sess.Refresh)

		assert.Equal(t, []string{"/user"}, routes.all())
	})

	t.Run("admin context navigates to the admin dashboard", func(t *testing.T) {
		backend := &fakeBackend{
			user:     api.User{ID: 2, Username: "root", Role: "admin"},
			password: "hunter2",
		}
		authCtx, _, routes := newTestContext(t, session.RoleAdmin, backend)

		_, err := authCtx.Login(context.Background(), "root@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, []string{"/admin"}, routes.all())
	})

	t.Run("bad credentials leave the context anonymous", func(t *testing.T) {
		backend := &fakeBackend{password: "hunter2"}
		authCtx, store, routes := newTestContext(t, session.RoleUser, backend)

		_, err := authCtx.Login(context.Background(), "kai@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, api.KindUnauthorized, api.KindOf(err))
		assert.Equal(t, StatusAnonymous, authCtx.Status())

		_, err = store.Get(session.RoleUser)
		assert.ErrorIs(t, err, session.ErrNoSession)
		assert.Empty(t, routes.all())
	})

	t.Run("role mismatch clears the session and fails", func(t *testing.T) {
		// A user-role identity must not be accepted by an admin context.
		backend := &fakeBackend{
			user:     api.User{ID: 1, Username: "kai", Role: "user"},
			password: "hunter2",
		}
		authCtx, store, _ := newTestContext(t, session.RoleAdmin, backend)

		_, err := authCtx.Login(context.Background(), "kai@example.com", "hunter2")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRoleMismatch)
		assert.Equal(t, api.KindForbidden, api.KindOf(err))
		assert.Equal(t, StatusAnonymous, authCtx.Status())
		assert.Nil(t, authCtx.CurrentUser())

		_, err = store.Get(session.RoleAdmin)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestContext_Initialize(t *testing.T) {
	t.Run("no stored session leaves the context anonymous", func(t *testing.T) {
		backend := &fakeBackend{}
		authCtx, _, _ := newTestContext(t, session.RoleUser, backend)

		require.NoError(t, authCtx.Initialize(context.Background()))
		assert.Equal(t, StatusAnonymous, authCtx.Status())
		assert.False(t, authCtx.IsAuthenticated())
	})

	t.Run("valid stored session restores the identity", func(t *testing.T) {
		backend := &fakeBackend{user: api.User{ID: 1, Username: "kai", Role: "user"}}
		authCtx, store, _ := newTestContext(t, session.RoleUser, backend)

		require.NoError(t, store.Set(session.RoleUser, session.Session{
			Access: "acc-token", Refresh: "ref-token",
		}))

		require.NoError(t, authCtx.Initialize(context.Background()))
		assert.Equal(t, StatusAuthenticated, authCtx.Status())
		require.NotNil(t, authCtx.CurrentUser())
		assert.Equal(t, "kai", authCtx.CurrentUser().Username)
	})

	t.Run("rejected stored session is cleared", func(t *testing.T) {
		backend := &fakeBackend{user: api.User{ID: 1, Username: "kai", Role: "user"}}
		authCtx, store, _ := newTestContext(t, session.RoleUser, backend)

		require.NoError(t, store.Set(session.RoleUser, session.Session{
			Access: "expired-token", Refresh: "dead-refresh",
		}))

		require.NoError(t, authCtx.Initialize(context.Background()))
		assert.Equal(t, StatusAnonymous, authCtx.Status())

		_, err := store.Get(session.RoleUser)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestContext_Logout(t *testing.T) {
	backend := &fakeBackend{
		user:     api.User{ID: 1, Username: "kai", Role: "user"},
		password: "hunter2",
	}
	authCtx, store, routes := newTestContext(t, session.RoleUser, backend)

	_, err := authCtx.Login(context.Background(), "kai@example.com", "hunter2")
	require.NoError(t, err)

	authCtx.Logout(context.Background())

	assert.Equal(t, StatusAnonymous, authCtx.Status())
	assert.Nil(t, authCtx.CurrentUser())

	_, err = store.Get(session.RoleUser)
	assert.ErrorIs(t, err, session.ErrNoSession)

	assert.Equal(t, []string{"/user", "/login"}, routes.all())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 1, backend.logoutCalls)
}

func TestContext_SessionInvalidation(t *testing.T) {
	// An unrecoverable refresh forces the anonymous state and navigates to
	// the role's login route through the invalid-session handler.
	backend := &fakeBackend{
		user:     api.User{ID: 1, Username: "kai", Role: "user"},
		password: "hunter2",
	}
	authCtx, store, routes := newTestContext(t, session.RoleUser, backend)

	_, err := authCtx.Login(context.Background(), "kai@example.com", "hunter2")
	require.NoError(t, err)

	// Simulate token expiry; the backend's refresh endpoint rejects all
	// exchanges, so the next authenticated call invalidates the session.
	require.NoError(t, store.Set(session.RoleUser, session.Session{
		Access: "expired-token", Refresh: "dead-refresh",
	}))

	require.NoError(t, authCtx.Initialize(context.Background()))

	assert.Equal(t, StatusAnonymous, authCtx.Status())
	routesSeen := routes.all()
	assert.Contains(t, routesSeen, "/login")
}

func TestContext_RoleIsolation(t *testing.T) {
	// Two contexts over one store: each only sees its own role's session.
	userBackend := &fakeBackend{
		user:     api.User{ID: 1, Username: "kai", Role: "user"},
		password: "hunter2",
	}
	server := httptest.NewServer(userBackend.handler())
	t.Cleanup(server.Close)

	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)

	userClient := api.New(api.Config{BaseURL: server.URL, Role: session.RoleUser, Logger: zerolog.Nop()}, store)
	adminClient := api.New(api.Config{BaseURL: server.URL, Role: session.RoleAdmin, Logger: zerolog.Nop()}, store)

	userCtx := NewContext(session.RoleUser, store, userClient, nil, zerolog.Nop())
	adminCtx := NewContext(session.RoleAdmin, store, adminClient, nil, zerolog.Nop())

	_, err = userCtx.Login(context.Background(), "kai@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, adminCtx.Initialize(context.Background()))

	assert.True(t, userCtx.IsAuthenticated())
	assert.False(t, adminCtx.IsAuthenticated())

	_, err = store.Get(session.RoleUser)
	assert.NoError(t, err)
	_, err = store.Get(session.RoleAdmin)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StatusUninitialized.String())
	assert.Equal(t, "checking", StatusChecking.String())
	assert.Equal(t, "authenticated", StatusAuthenticated.String())
	assert.Equal(t, "anonymous", StatusAnonymous.String())
}

func TestContext_NilNavigator(t *testing.T) {
	backend := &fakeBackend{password: "hunter2"}
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)
	client := api.New(api.Config{BaseURL: server.URL, Role: session.RoleUser, Logger: zerolog.Nop()}, store)

	authCtx := NewContext(session.RoleUser, store, client, nil, zerolog.Nop())

	// Must not panic on navigation with no navigator plugged in.
	_, err = authCtx.Login(context.Background(), "kai@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, StatusAnonymous, authCtx.Status())
}
