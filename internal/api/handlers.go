package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/service"
)

// ---------------------------------------------------------------------------
// Request types
// ---------------------------------------------------------------------------

type createListRequest struct {
	Name string `json:"name"`
}

// optionalPrice tells an absent price apart from an explicit null. Form
// clients send the price as a string; "" means no price.
type optionalPrice struct {
	Set   bool
	Null  bool
	Value float64
}

func (p *optionalPrice) UnmarshalJSON(b []byte) error {
	p.Set = true
	if bytes.Equal(b, []byte("null")) {
		p.Null = true
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			p.Null = true
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Left to the service's range check.
			p.Value = math.NaN()
			return nil
		}
		p.Value = v
		return nil
	}
	return json.Unmarshal(b, &p.Value)
}

type itemRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	URL         *string       `json:"url"`
	Category    *string       `json:"category"`
	Price       optionalPrice `json:"price"`
}

func (req itemRequest) fields() models.ItemFields {
	f := models.ItemFields{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		Category:    req.Category,
	}
	switch {
	case req.Price.Null:
		f.ClearPrice = true
	case req.Price.Set:
		v := req.Price.Value
		f.Price = &v
	}
	return f
}

type emailRequest struct {
	Email string `json:"email"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	pair, err := s.svc.CreateList(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "List not found")
		return
	}

	s.respondJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleCreatorView(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetCreatorView(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeServiceError(w, r, err, "List not found")
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleBuyerView(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetBuyerView(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeServiceError(w, r, err, "List not found")
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.AddItem(r.Context(), chi.URLParam(r, "token"), req.fields())
	if err != nil {
		s.writeServiceError(w, r, err, "List not found")
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.EditItem(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "itemID"), req.fields())
	if err != nil {
		s.writeServiceError(w, r, err, "Item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteItem(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "itemID")); err != nil {
		s.writeServiceError(w, r, err, "Item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleTogglePurchased(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.TogglePurchased(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "itemID"))
	if err != nil {
		s.writeServiceError(w, r, err, "Item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

// ---------------------------------------------------------------------------
// Email identity and recovery
// ---------------------------------------------------------------------------

func (s *Server) handleBindEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := s.svc.BindEmail(r.Context(), chi.URLParam(r, "token"), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err, "List not found")
		return
	}
	s.respondJSON(w, http.StatusOK, successResponse{Success: true, Warning: res.Warning})
}

func (s *Server) handleRequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.RequestRecovery(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err, "Not found")
		return
	}
	s.respondJSON(w, http.StatusOK, successResponse{Success: true, Message: service.RecoveryAccepted})
}

func (s *Server) handleRedeemRecovery(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.RedeemRecovery(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writeServiceError(w, r, err, "Invalid or expired token")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"lists": lists})
}
