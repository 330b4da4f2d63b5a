package api

import (
	"fmt"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body createItemRequest
	if err := DecodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Available == nil {
		s.fail(w, r, fmt.Errorf("%w: available is required", domain.ErrValidation))
		return
	}

	item, err := s.svc.Items.AddItem(r.Context(), userID, &models.Item{
		Name:        body.Name,
		Description: body.Description,
		Available:   *body.Available,
		RequestID:   body.RequestID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toItemDTO(item))
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
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
	items, err := s.svc.Items.ListOwnerItems(r.Context(), userID, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]itemDetailsDTO, 0, len(items))
	for _, d := range items {
		out = append(out, toItemDetailsDTO(d))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	page, err := PageFromQuery(r, s.pageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.Items.SearchItems(r.Context(), r.URL.Query().Get("text"), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDTOs(items))
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	details, err := s.svc.Items.GetItem(r.Context(), userID, itemID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDetailsDTO(details))
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body updateItemRequest
	if err := DecodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.svc.Items.UpdateItem(r.Context(), userID, itemID, models.ItemPatch{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toItemDTO(item))
}

func (s *HTTPServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Items.DeleteItem(r.Context(), userID, itemID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := PathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body commentRequest
	if err := DecodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	comment, err := s.svc.Items.AddComment(r.Context(), userID, itemID, body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCommentDTO(comment))
}
