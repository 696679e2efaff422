package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/exledger/internal/adapter/http/dto"
	"github.com/iho/exledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err and writes it. Internal errors do not leak
// their details.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyDeleted),
		errors.Is(err, domain.ErrInconsistentTransfer),
		errors.Is(err, domain.ErrNoActiveShift):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateUnavailable),
		errors.Is(err, domain.ErrUnreliableRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrSameService),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrInvalidAsset),
		errors.Is(err, domain.ErrCommentTooLong),
		errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, dto.ErrMissingField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// currentUser returns the user the auth middleware put into the context.
func currentUser(r *http.Request) (*domain.User, error) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// authorizeService lets admins act on any service and operators only on
// their own.
func authorizeService(user *domain.User, serviceID string) error {
	if user.Role.IsPrivileged() || user.BelongsTo(serviceID) {
		return nil
	}
	return fmt.Errorf("%w: service %s belongs to another operator", domain.ErrForbidden, serviceID)
}

// serviceUser resolves the current user and checks access to serviceID.
func serviceUser(w http.ResponseWriter, r *http.Request, serviceID string) (*domain.User, bool) {
	user, err := currentUser(r)
	if err == nil {
		err = authorizeService(user, serviceID)
	}
	if err != nil {
		writeDomainError(w, "access denied", err)
		return nil, false
	}
	return user, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an RFC 3339 query parameter. A missing parameter
// yields the zero time.
func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339", domain.ErrInvalidTimeRange, key)
	}
	return t, nil
}
