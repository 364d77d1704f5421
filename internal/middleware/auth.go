package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
	ClaimsKey contextKey = "claims"
)

// TokenParser validates a session token.
type TokenParser interface {
	Parse(ctx context.Context, token string) (*services.Claims, error)
}

// AccountChecker loads the account behind a session.
type AccountChecker interface {
	CheckAuth(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

// Auth requires a valid session token, read from the session cookie or an
// "Authorization: Bearer" header, and stores the caller in the context.
// With a non-nil accounts the caller must still exist, and the stored role
// wins over the one in the token.
func Auth(tokens TokenParser, accounts AccountChecker, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized - no token provided"))
				return
			}

			claims, err := tokens.Parse(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					logging.Ctx(r.Context()).Error().Err(err).Msg("session check failed")
				}
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized - invalid token"))
				return
			}
			userID, _ := claims.UserID()
			role := claims.Role

			if accounts != nil {
				u, err := accounts.CheckAuth(r.Context(), userID)
				switch {
				case errors.Is(err, services.ErrNotFound):
					writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized - invalid token"))
					return
				case err != nil:
					logging.Ctx(r.Context()).Error().Err(err).Str("user_id", userID.Hex()).Msg("account lookup failed")
					writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
					return
				}
				role = u.Role
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, role)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserID extracts the caller's id from context.
func GetUserID(ctx context.Context) primitive.ObjectID {
	id, _ := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id
}

func GetRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(RoleKey).(models.Role)
	return role
}

func GetClaims(ctx context.Context) *services.Claims {
	c, _ := ctx.Value(ClaimsKey).(*services.Claims)
	return c
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
