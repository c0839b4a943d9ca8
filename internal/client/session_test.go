package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/web/internal/config"
	"storefront/web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionPath: "/user/auth",
		LoginPath:   "/user/login",
		LogoutPath:  "/user/logout",
		CartPath:    "/user/updateCart",
	}
}

func TestCheckSessionOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantID  string
		wantErr error
	}{
		{name: "authenticated", status: http.StatusOK, body: `{"user":{"id":"u1"}}`, wantID: "u1"},
		{name: "mongo id", status: http.StatusOK, body: `{"user":{"_id":"u2","email":"a@b.ro"}}`, wantID: "u2"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/user/auth", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewSessionClient(newBackendConfig(srv.URL), newAuthConfig())
			require.NoError(t, err)

			user, err := c.CheckSession(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestCheckSessionUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewSessionClient(newBackendConfig(srv.URL), newAuthConfig())
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestCheckSessionMissingUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewSessionClient(newBackendConfig(srv.URL), newAuthConfig())
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	assert.Error(t, err)
}

func TestSessionCookieIsSentWithRequests(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "fresh", Path: "/"})
		_, _ = w.Write([]byte(`{"user":{"id":"u1"}}`))
	})
	mux.HandleFunc("/user/auth", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			seen = append(seen, c.Value)
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := newAuthConfig()
	cfg.CookieName = "token"
	cfg.CookieValue = "seed"
	c, err := NewSessionClient(newBackendConfig(srv.URL), cfg)
	require.NoError(t, err)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	user, err := c.Login(context.Background(), "a@b.ro", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = c.CheckSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"seed", "fresh"}, seen)
}

func TestUpdateCartSendsItems(t *testing.T) {
	var got map[string]domain.CartItems
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewSessionClient(newBackendConfig(srv.URL), newAuthConfig())
	require.NoError(t, err)

	items := domain.CartItems{"p1": {Quantity: 2}}
	require.NoError(t, c.UpdateCart(context.Background(), items))
	assert.Equal(t, items, got["cartItems"])
}

func TestRegister(t *testing.T) {
	var got Registration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Email == "taken@example.ro" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"user":{"_id":"u3","email":"` + got.Email + `"}}`))
	}))
	defer srv.Close()

	cfg := newAuthConfig()
	cfg.RegisterPath = "/user/register"
	c, err := NewSessionClient(newBackendConfig(srv.URL), cfg)
	require.NoError(t, err)

	user, err := c.Register(context.Background(), Registration{FirstName: "Ana", Email: "ana@example.ro", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u3", user.ID)
	assert.Equal(t, "Ana", got.FirstName)

	_, err = c.Register(context.Background(), Registration{Email: "taken@example.ro"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
}
