package api

import "net/http"

type createRequestRequest struct {
	Description string `json:"description"`
}

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	requestorID, err := sharerID(r)
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
		views, err := s.services.Requests.ListByRequestor(r.Context(), requestorID, offset, limit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var body createRequestRequest
		if err := decodeBody(r, &body); err != nil {
			s.writeDomainError(w, err)
			return
		}
		req, err := s.services.Requests.Create(r.Context(), requestorID, body.Description)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, req)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *HTTPServer) handleRequestsAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	offset, limit, err := pagination(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	requests, err := s.services.Requests.ListAll(r.Context(), offset, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *HTTPServer) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	id, err := pathID(r, "/requests/")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	view, err := s.services.Requests.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
