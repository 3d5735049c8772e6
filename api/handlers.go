package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	debtDomain "github.com/owetally/tally/debt"
	"github.com/owetally/tally/service"
)

const dueDateFormat = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type createDebtRequest struct {
	BorrowerID   string  `json:"borrower_id"`
	BorrowerName string  `json:"borrower_name"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	DueDate      string  `json:"due_date"`
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req createDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, err = time.Parse(dueDateFormat, req.DueDate)
		if err != nil {
			s.writeError(w, "add debt", &debtDomain.ValidationError{Field: "due_date", Reason: "must be a YYYY-MM-DD date"})
			return
		}
	}

	d, err := s.service.CreateDebt(r.Context(), actor, service.CreateDebtRequest{
		BorrowerID:   req.BorrowerID,
		BorrowerName: req.BorrowerName,
		Amount:       req.Amount,
		Description:  req.Description,
		DueDate:      dueDate,
	})
	if err != nil {
		s.writeError(w, "add debt", err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	debts, err := s.service.ListDebts(r.Context(), actor)
	if err != nil {
		s.writeError(w, "list debts", err)
		return
	}

	writeJSON(w, http.StatusOK, debts)
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleStatusChange(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	target, err := debtDomain.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	d, err := s.service.RequestStatusChange(r.Context(), actor, mux.Vars(r)["id"], target)
	if err != nil {
		s.writeError(w, "update debt", err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	if err := s.service.DeleteDebt(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, "delete debt", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	feed, err := s.service.ListNotifications(r.Context(), actor)
	if err != nil {
		s.writeError(w, "list notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	if err := s.service.MarkNotificationRead(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, "update notification", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resolveConfirmationRequest struct {
	Decision string `json:"decision"`
}

func (s *Server) handleResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var req resolveConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	decision, err := debtDomain.ParseStatus(req.Decision)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.service.ResolveConfirmation(r.Context(), actor, mux.Vars(r)["id"], decision); err != nil {
		s.writeError(w, "update debt", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	if err := s.service.DeleteNotification(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, "delete notification", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchBorrowers(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	matches, err := s.service.SearchBorrowers(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, "search friends", err)
		return
	}

	writeJSON(w, http.StatusOK, matches)
}
