package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/cashflow-forecast/internal/export"
	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/Dan9191/cashflow-forecast/internal/service"
)

type scenarioRequest struct {
	Date        string          `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

type forecastRequest struct {
	HorizonDays int               `json:"horizon_days"`
	Granularity string            `json:"granularity"`
	Scenarios   []scenarioRequest `json:"scenarios"`
}

// GetForecast handles GET /forecast?days=&granularity=
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	req, ok := parseForecastQuery(w, r)
	if !ok {
		return
	}
	h.respondForecast(w, r, req, writeReportJSON)
}

// PostForecast handles POST /forecast with optional what-if scenarios
func (h *Handler) PostForecast(w http.ResponseWriter, r *http.Request) {
	var body forecastRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	granularity, err := forecast.ParseGranularity(body.Granularity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := service.ForecastRequest{
		HorizonDays: body.HorizonDays,
		Granularity: granularity,
		Scenarios:   make([]forecast.ScenarioInput, 0, len(body.Scenarios)),
	}
	for _, s := range body.Scenarios {
		req.Scenarios = append(req.Scenarios, forecast.ScenarioInput{
			Date:        s.Date,
			Amount:      rawNumber(s.Amount),
			Description: s.Description,
		})
	}
	h.respondForecast(w, r, req, writeReportJSON)
}

// ExportForecast handles GET /forecast/export and renders XML
func (h *Handler) ExportForecast(w http.ResponseWriter, r *http.Request) {
	req, ok := parseForecastQuery(w, r)
	if !ok {
		return
	}
	h.respondForecast(w, r, req, func(w http.ResponseWriter, report forecast.Report) error {
		out, err := export.ForecastXML(report)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		_, err = w.Write(out)
		return err
	})
}

func (h *Handler) respondForecast(w http.ResponseWriter, r *http.Request, req service.ForecastRequest,
	write func(http.ResponseWriter, forecast.Report) error) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Forecast(r.Context(), userID, req)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if err := write(w, forecast.NewReport(result)); err != nil {
		h.internalError(w, err)
	}
}

func writeReportJSON(w http.ResponseWriter, report forecast.Report) error {
	writeJSON(w, http.StatusOK, report)
	return nil
}

func parseForecastQuery(w http.ResponseWriter, r *http.Request) (service.ForecastRequest, bool) {
	var req service.ForecastRequest
	q := r.URL.Query()

	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return req, false
		}
		req.HorizonDays = days
	}

	granularity, err := forecast.ParseGranularity(q.Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	req.Granularity = granularity
	return req, true
}

// rawNumber accepts both 12.5 and "12.5"; anything else is passed through
// for the scenario normalizer to reject.
func rawNumber(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
