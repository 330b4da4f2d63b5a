package api

import (
	"net/http"
)

func (s *HTTPServer) handleAddRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequestBody
	if err := DecodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.svc.Requests.AddRequest(r.Context(), userID, body.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, requestDTO{
		ID:          req.ID,
		Description: req.Description,
		Created:     req.Created.UTC(),
		Items:       []itemDTO{},
	})
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requestID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	details, err := s.svc.Requests.GetRequest(r.Context(), userID, requestID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTO(details))
}

func (s *HTTPServer) handleListOwnRequests(w http.ResponseWriter, r *http.Request) {
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
	details, err := s.svc.Requests.ListOwnRequests(r.Context(), userID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTOs(details))
}

func (s *HTTPServer) handleListOtherRequests(w http.ResponseWriter, r *http.Request) {
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
	details, err := s.svc.Requests.ListOtherRequests(r.Context(), userID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toRequestDTOs(details))
}
