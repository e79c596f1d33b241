package api

import (
	"net/http"

	"sharekeep/internal/models"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		offset, limit, err := pagination(r)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		users, err := s.services.Users.List(r.Context(), offset, limit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)

	case http.MethodPost:
		var body createUserRequest
		if err := decodeBody(r, &body); err != nil {
			s.writeDomainError(w, err)
			return
		}
		user, err := s.services.Users.Create(r.Context(), body.Name, body.Email)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *HTTPServer) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "/users/")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.services.Users.Get(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPatch:
		var patch models.UserPatch
		if err := decodeBody(r, &patch); err != nil {
			s.writeDomainError(w, err)
			return
		}
		user, err := s.services.Users.Update(r.Context(), id, patch)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if err := s.services.Users.Delete(r.Context(), id); err != nil {
			s.writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
