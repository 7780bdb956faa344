package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/models"
	"github.com/xelth-com/stockflow/internal/services/users"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var in users.LoginInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	session, err := r.svc.Users.Login(req.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// register creates an account. Registration is public; an ADMIN caller
// may also pick the new account's role.
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var in users.RegisterInput
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}

	var callerRole models.Role
	if caller, ok := r.gate.Authenticate(req); ok {
		callerRole = caller.Role
	}

	user, err := r.svc.Users.Register(req.Context(), in, callerRole)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

// refresh exchanges a refresh token for a new token pair
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var in refreshRequest
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	session, err := r.svc.Users.Refresh(req.Context(), in.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	list, err := r.svc.Users.List(req.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) setUserRole(w http.ResponseWriter, req *http.Request) {
	var in roleRequest
	if err := decodeJSON(req, &in); err != nil {
		respondError(w, err)
		return
	}
	user, err := r.svc.Users.SetRole(req.Context(), pathID(req), in.Role)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
