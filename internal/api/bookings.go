package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/export"
	"sharekeep/internal/models"
)

type createBookingRequest struct {
	ItemID int64     `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

func stateParam(r *http.Request) string {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == "" {
		return models.StateAll
	}
	return state
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	bookerID, err := sharerID(r)
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
		views, err := s.services.Bookings.ListByBooker(r.Context(), bookerID, stateParam(r), offset, limit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var body createBookingRequest
		if err := decodeBody(r, &body); err != nil {
			s.writeDomainError(w, err)
			return
		}
		view, err := s.services.Bookings.Create(r.Context(), bookerID, body.ItemID, body.Start, body.End)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *HTTPServer) handleOwnerBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	ownerID, err := sharerID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	offset, limit, err := pagination(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	views, err := s.services.Bookings.ListByOwner(r.Context(), ownerID, stateParam(r), offset, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleOwnerExport streams the owner's bookings as an XLSX workbook.
func (s *HTTPServer) handleOwnerExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	ownerID, err := sharerID(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	offset, limit, err := pagination(r)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	views, err := s.services.Bookings.ListByOwner(r.Context(), ownerID, stateParam(r), offset, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	f, err := export.BookingsReport(views)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(w); err != nil {
		s.log.Error().Err(err).Msg("write export response")
	}
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "/bookings/")
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
		view, err := s.services.Bookings.Get(r.Context(), userID, bookingID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case http.MethodPatch:
		raw := strings.TrimSpace(r.URL.Query().Get("approved"))
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeDomainError(w, apperr.Validation("approved parameter must be true or false"))
			return
		}
		view, err := s.services.Bookings.Approve(r.Context(), userID, bookingID, approved)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
