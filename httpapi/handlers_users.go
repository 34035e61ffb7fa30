package httpapi

import (
	"fmt"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
)

type assignRoleRequest struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required"`
}

type profileUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	var req assignRoleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.engine.AssignRole(r.Context(), caller, req.ID, req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Role updated successfully to %s for the user %s", u.Role, u.Name),
		"user":    toPublic(u),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	users, err := s.engine.ListUsers(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]*publicUser, 0, len(users))
	for _, u := range users {
		out = append(out, toPublic(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Users retrieved successfully",
		"users":   out,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	if err := s.engine.DeleteUser(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	u, err := s.engine.GetProfile(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toPublic(u)})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFromContext(r.Context())

	var req profileUpdateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.engine.UpdateProfile(r.Context(), caller.ID, goAccount.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toPublic(u),
	})
}
