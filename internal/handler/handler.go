package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/Dan9191/cashflow-forecast/internal/middleware"
	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/repository"
	"github.com/Dan9191/cashflow-forecast/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Service is the business logic the handlers expose
type Service interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Forecast(ctx context.Context, userID int64, req service.ForecastRequest) (forecast.Result, error)
	CreateRule(ctx context.Context, userID int64, in service.RuleInput) (*models.RecurringRule, error)
	ListRules(ctx context.Context, userID int64) ([]models.RecurringRule, error)
	LatestSnapshot(ctx context.Context, userID int64) (*models.ForecastSnapshot, error)
}

type Handler struct {
	svc Service
	log *logrus.Logger
}

func NewHandler(svc Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// NewRouter registers the public and the authenticated routes
func NewRouter(h *Handler, auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(auth)
	authRouter.HandleFunc("/rules", h.CreateRule).Methods(http.MethodPost)
	authRouter.HandleFunc("/rules", h.ListRules).Methods(http.MethodGet)
	authRouter.HandleFunc("/forecast", h.GetForecast).Methods(http.MethodGet)
	authRouter.HandleFunc("/forecast", h.PostForecast).Methods(http.MethodPost)
	authRouter.HandleFunc("/forecast/export", h.ExportForecast).Methods(http.MethodGet)
	authRouter.HandleFunc("/forecast/snapshot", h.GetSnapshot).Methods(http.MethodGet)
	return r
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetSnapshot returns the latest nightly forecast
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.svc.LatestSnapshot(r.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no forecast snapshot yet")
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user ID not found in context")
	}
	return id, ok
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	h.log.Errorf("Request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
