package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/myron98980/halloween-party-app/internal/session"
)

// TokenIssuer signs session tokens for staff identities.
type TokenIssuer interface {
	Issue(identity session.Identity) (string, error)
}

// HandleLogin returns the handler for the manual staff login. There is
// no password: anyone at the door with the app counts as staff, the
// name only feeds attribution on the tickets they sell.
func HandleLogin(issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		nombre := strings.TrimSpace(req.Nombre)
		apellido := strings.TrimSpace(req.Apellido)
		if nombre == "" || apellido == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "nombre and apellido are required")
			return
		}

		identity := session.Identity{
			Nombre: fmt.Sprintf("%s %s", nombre, apellido),
			UID:    "manual-" + uuid.NewString(),
		}
		token, err := issuer.Issue(identity)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{
			Token:  token,
			Nombre: identity.Nombre,
			UID:    identity.UID,
		})
	}
}

// HandleMe echoes the identity resolved by the auth middleware.
func HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "not authenticated")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identityResponse{
			Nombre: identity.Nombre,
			Email:  identity.Email,
			UID:    identity.UID,
		})
	}
}

type loginRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
}

type loginResponse struct {
	Token  string `json:"token"`
	Nombre string `json:"nombre"`
	UID    string `json:"uid"`
}

type identityResponse struct {
	Nombre string `json:"nombre"`
	Email  string `json:"email,omitempty"`
	UID    string `json:"uid"`
}
