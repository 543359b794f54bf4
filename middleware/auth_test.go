package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeRoles struct {
	roles map[uuid.UUID][]models.UserRole
	err   error
}

func (f *fakeRoles) HasAnyRole(_ context.Context, userID uuid.UUID, roles ...models.UserRole) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, have := range f.roles[userID] {
		for _, want := range roles {
			if have == want {
				return true, nil
			}
		}
	}
	return false, nil
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(actor.UserID.String() + " " + actor.Email))
	})
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	auth := NewAuthenticator(testSecret, &fakeRoles{}, nil)
	valid := signToken(t, testSecret, jwt.MapClaims{
		"sub": userID.String(), "email": "mod@example.com", "exp": time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": userID.String()}), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix(),
		}), http.StatusUnauthorized},
		{"sub is not a uuid", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "42"}), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(actorEcho()).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, userID.String()+" mod@example.com", rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	auth := NewAuthenticator(testSecret, &fakeRoles{}, nil)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	rec := httptest.NewRecorder()
	auth.Authenticate(actorEcho()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_WebsocketQueryToken(t *testing.T) {
	auth := NewAuthenticator(testSecret, &fakeRoles{}, nil)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString()})

	plain := httptest.NewRequest(http.MethodGet, "/ws/admin?access_token="+token, nil)
	rec := httptest.NewRecorder()
	auth.Authenticate(actorEcho()).ServeHTTP(rec, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "query token only for websocket upgrades")

	upgrade := httptest.NewRequest(http.MethodGet, "/ws/admin?access_token="+token, nil)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	auth.Authenticate(actorEcho()).ServeHTTP(rec, upgrade)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	admin := uuid.New()
	viewer := uuid.New()
	roles := &fakeRoles{roles: map[uuid.UUID][]models.UserRole{
		admin:  {models.RoleModerator},
		viewer: {models.RoleUser},
	}}
	auth := NewAuthenticator(testSecret, roles, nil)
	gate := auth.RequireRole(models.RoleAdmin, models.RoleModerator)(actorEcho())

	serve := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(WithActor(context.Background(), models.Actor{UserID: admin})))
	assert.Equal(t, http.StatusForbidden, serve(WithActor(context.Background(), models.Actor{UserID: viewer})))
	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))

	roles.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, serve(WithActor(context.Background(), models.Actor{UserID: admin})))
}
