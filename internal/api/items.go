package api

import (
	"net/http"
	"strconv"
	"strings"

	"sharekeep/internal/apperr"
	"sharekeep/internal/models"
)

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"request_id"`
}

type createCommentRequest struct {
	Text string `json:"text"`
}

func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	userID, err := sharerID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		offset, limit, err := pagination(r)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		views, err := s.services.Items.ListByOwner(r.Context(), userID, offset, limit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var body createItemRequest
		if err := decodeBody(r, &body); err != nil {
			s.writeDomainError(w, err)
			return
		}
		item, err := s.services.Items.Create(r.Context(), userID, body.Name, body.Description, body.Available, body.RequestID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *HTTPServer) handleItemSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	offset, limit, err := pagination(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	items, err := s.services.Items.Search(r.Context(), r.URL.Query().Get("text"), offset, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleItemByID serves /items/{id} and /items/{id}/comment.
func (s *HTTPServer) handleItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/items/")

	if idRaw, ok := strings.CutSuffix(rest, "/comment"); ok {
		s.handleItemComment(w, r, idRaw)
		return
	}

	itemID, err := pathID(r, "/items/")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	userID, err := sharerID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.services.Items.Get(r.Context(), itemID, userID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case http.MethodPatch:
		var patch models.ItemPatch
		if err := decodeBody(r, &patch); err != nil {
			s.writeDomainError(w, err)
			return
		}
		item, err := s.services.Items.Update(r.Context(), userID, itemID, patch)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case http.MethodDelete:
		if err := s.services.Items.Delete(r.Context(), userID, itemID); err != nil {
			s.writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *HTTPServer) handleItemComment(w http.ResponseWriter, r *http.Request, idRaw string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	itemID, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || itemID <= 0 {
		s.writeDomainError(w, apperr.Validation("invalid id in path: %s", idRaw))
		return
	}
	authorID, err := sharerID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var body createCommentRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeDomainError(w, err)
		return
	}

	comment, err := s.services.Items.CreateComment(r.Context(), itemID, authorID, body.Text)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
