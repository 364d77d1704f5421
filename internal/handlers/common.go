package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

const requestTimeout = 15 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	return true
}

// writeError maps a service error onto a status code and envelope. Unknown
// errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs services.FieldErrors
	var invalid *services.ValidationError
	var rated *services.AlreadyRatedError

	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrs))
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, models.APIResponse{
			Message: invalid.Message,
			Errors:  map[string]string{invalid.Field: invalid.Message},
		})
	case errors.As(err, &rated):
		writeJSON(w, http.StatusConflict, models.APIResponse{
			Message: rated.Error(),
			Data:    map[string]int{"previousRating": rated.PreviousRating},
		})
	case errors.Is(err, services.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrConflict):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("request timed out")
		writeJSON(w, http.StatusGatewayTimeout, models.NewErrorResponse("Request timed out"))
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
	}
}

// pathID parses a hex ObjectID path parameter. A malformed id cannot name an
// existing document, so it is answered with notFound.
func pathID(w http.ResponseWriter, r *http.Request, param string, notFound error) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(notFound.Error()))
		return primitive.NilObjectID, false
	}
	return id, true
}

func contextWithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

func clientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return ""
}
