package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/weekly-contest/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Имена claims в access token, который выдаёт backend авторизации.
const (
	jwtClaimSubject = "sub"
	jwtClaimEmail   = "email"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// RoleChecker answers whether a user holds any of the given roles.
type RoleChecker interface {
	HasAnyRole(ctx context.Context, userID uuid.UUID, roles ...models.UserRole) (bool, error)
}

type Authenticator struct {
	secret []byte
	roles  RoleChecker
	logger *slog.Logger
}

func NewAuthenticator(secret string, roles RoleChecker, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{secret: []byte(secret), roles: roles, logger: logger}
}

// ParseToken verifies an HS256 access token and returns the actor it names.
func (a *Authenticator) ParseToken(raw string) (models.Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	sub, _ := claims[jwtClaimSubject].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: bad %q claim", ErrInvalidToken, jwtClaimSubject)
	}
	email, _ := claims[jwtClaimEmail].(string)
	return models.Actor{UserID: userID, Email: email}, nil
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}
		actor, err := a.ParseToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole должен стоять после Authenticate. Роли читаются из user_roles на каждый запрос.
func (a *Authenticator) RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			allowed, err := a.roles.HasAnyRole(r.Context(), actor.UserID, roles...)
			if err != nil {
				a.logger.Error("role check failed", "user_id", actor.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	return actor, ok
}

// Браузер не может передать заголовок при открытии websocket, поэтому для upgrade
// токен принимается и из query-параметра access_token.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
