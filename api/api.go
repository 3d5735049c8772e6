// Package api exposes the service over HTTP for the presentation layer.
// Session mechanics are out of scope: the acting user arrives in the
// X-User-ID / X-User-Name headers, set by whatever fronts this server.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	debtDomain "github.com/owetally/tally/debt"
	notificationDomain "github.com/owetally/tally/notification"
	"github.com/owetally/tally/service"
)

type Config struct {
	Port uint `env:"API_SERVER_PORT" envDefault:"8080"`
}

type Server struct {
	cfg     Config
	router  *mux.Router
	service *service.Service
}

func NewServer(cfg Config, serviceHandler *service.Service) *Server {
	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		service: serviceHandler,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/debts", s.handleCreateDebt).Methods(http.MethodPost)
	s.router.HandleFunc("/debts", s.handleListDebts).Methods(http.MethodGet)
	s.router.HandleFunc("/debts/{id}/status", s.handleStatusChange).Methods(http.MethodPut)
	s.router.HandleFunc("/debts/{id}", s.handleDeleteDebt).Methods(http.MethodDelete)
	s.router.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	s.router.HandleFunc("/notifications/{id}/read", s.handleMarkRead).Methods(http.MethodPut)
	s.router.HandleFunc("/notifications/{id}/resolve", s.handleResolveConfirmation).Methods(http.MethodPost)
	s.router.HandleFunc("/notifications/{id}", s.handleDeleteNotification).Methods(http.MethodDelete)
	s.router.HandleFunc("/friends/search", s.handleSearchBorrowers).Methods(http.MethodGet)
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	log.Println("Server listening on port", s.cfg.Port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.cfg.Port), s.router)
}

func (s *Server) actor(r *http.Request) (service.Actor, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return service.Actor{}, fmt.Errorf("missing X-User-ID header")
	}
	return service.Actor{ID: id, Name: r.Header.Get("X-User-Name")}, nil
}

// writeError logs the error with its operation context and maps it to a
// status code. Store failures come back as 502 with a generic message so
// the client never renders state the store didn't persist.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	log.Printf("Error handling %s: %v\n", op, err)

	status := http.StatusBadGateway
	var validationErr *debtDomain.ValidationError
	var debtNotFound *debtDomain.ErrNotFound
	var notificationNotFound *notificationDomain.ErrNotFound
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &debtNotFound), errors.As(err, &notificationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotParty), errors.Is(err, service.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotConfirmation):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("unable to %s", op)})
}
