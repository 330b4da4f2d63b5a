package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"
)

func (s *HTTPServer) handleAddBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body models.BookingRequest
	if err := DecodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.AddBooking(r.Context(), userID, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toBookingDTO(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleApproveBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	approved, err := domain.ParseApproval(r.URL.Query().Get("approved"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.ApproveBooking(r.Context(), userID, bookingID, approved)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleListBookerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.svc.Bookings.ListBookingsForBooker)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.svc.Bookings.ListBookingsForOwner)
}

type bookingLister = func(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error)

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, list bookingLister) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := PageFromQuery(r, s.pageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookings, err := list(r.Context(), userID, r.URL.Query().Get("state"), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

// handleExportOwnerBookings renders every booking matching the state as xlsx.
func (s *HTTPServer) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookings, err := s.svc.Bookings.ListBookingsForOwner(r.Context(), userID, r.URL.Query().Get("state"), models.Page{})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookingsXLSX(&buf, bookings); err != nil {
		s.fail(w, r, err)
		return
	}

	fileName := fmt.Sprintf("bookings_%d_%s.xlsx", userID, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
