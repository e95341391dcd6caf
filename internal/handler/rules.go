package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/Dan9191/cashflow-forecast/internal/service"
	"github.com/shopspring/decimal"
)

type ruleRequest struct {
	Kind           string          `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CategoryKey    string          `json:"category_key"`
	Description    string          `json:"description"`
	Recurrence     string          `json:"recurrence"`
	StartDate      string          `json:"start_date"`
	EndDate        *string         `json:"end_date"`
	ExceptionDates []string        `json:"exception_dates"`
}

func (req ruleRequest) toInput() (service.RuleInput, error) {
	in := service.RuleInput{
		Kind:        models.RuleKind(req.Kind),
		Amount:      req.Amount,
		Currency:    req.Currency,
		CategoryKey: req.CategoryKey,
		Description: req.Description,
		Recurrence:  req.Recurrence,
	}

	var err error
	if in.StartDate, err = time.Parse(time.DateOnly, req.StartDate); err != nil {
		return in, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	if req.EndDate != nil {
		end, err := time.Parse(time.DateOnly, *req.EndDate)
		if err != nil {
			return in, fmt.Errorf("end_date must be YYYY-MM-DD")
		}
		in.EndDate = &end
	}
	for _, raw := range req.ExceptionDates {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return in, fmt.Errorf("exception date %q must be YYYY-MM-DD", raw)
		}
		in.ExceptionDates = append(in.ExceptionDates, d)
	}
	return in, nil
}

// CreateRule handles recurring rule creation
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.svc.CreateRule(r.Context(), userID, in)
	var verr *recurrence.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "token": verr.Token})
	case errors.Is(err, service.ErrInvalidRule):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.internalError(w, err)
	default:
		writeJSON(w, http.StatusCreated, rule)
	}
}

// ListRules returns the caller's recurring rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rules, err := h.svc.ListRules(r.Context(), userID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if rules == nil {
		rules = []models.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}
