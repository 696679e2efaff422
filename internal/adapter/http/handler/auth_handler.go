package handler

import (
	"net/http"

	"github.com/iho/exledger/internal/adapter/http/dto"
)

// AuthHandler exposes the identity carried by the request token. Tokens
// are issued out of band with `exledger-cli token issue`.
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// GetCurrentUser returns the current authenticated user
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
