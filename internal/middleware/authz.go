package middleware

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
)

// Authorizer answers whether a role may perform act on obj.
type Authorizer interface {
	Allowed(role, obj, act string) bool
}

// Require rejects callers whose role is not granted act on obj. It must run
// after Auth.
func Require(az Authorizer, obj, act string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if role == "" || !az.Allowed(string(role), obj, act) {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Forbidden - insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
