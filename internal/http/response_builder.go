package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"footprint/internal/core"
	applog "footprint/internal/log"
	"footprint/internal/report"
)

// Response bodies for factors and activities. Summary documents come from
// package report.
type (
	errorResponse struct {
		Error string `json:"error"`
	}

	factorResponse struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Unit        string  `json:"unit"`
		Kind        string  `json:"kind"`
		CO2ePerUnit float64 `json:"co2e_per_unit"`
	}

	activityResponse struct {
		ID             string    `json:"id"`
		UserID         string    `json:"user_id"`
		FactorID       string    `json:"factor_id"`
		ItemName       string    `json:"item_name"`
		Category       string    `json:"category"`
		Kind           string    `json:"kind"`
		Quantity       float64   `json:"quantity"`
		MonetaryAmount float64   `json:"monetary_amount"`
		UnitUsed       string    `json:"unit_used"`
		TotalCO2e      float64   `json:"total_co2e"`
		Date           time.Time `json:"date"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}
)

func newFactorResponse(f core.EmissionFactor) factorResponse {
	return factorResponse{
		ID:          f.ID,
		Name:        f.Name,
		Category:    f.Category,
		Unit:        f.Unit,
		Kind:        string(f.Kind()),
		CO2ePerUnit: f.Rate,
	}
}

func newActivityResponse(a core.Activity) activityResponse {
	return activityResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		FactorID:       a.FactorID,
		ItemName:       a.ItemName,
		Category:       a.Category,
		Kind:           string(a.Kind),
		Quantity:       a.Quantity,
		MonetaryAmount: report.Round2(a.MonetaryAmount),
		UnitUsed:       a.Unit,
		TotalCO2e:      report.Round2(a.Emissions),
		Date:           a.Date.UTC(),
		CreatedAt:      a.CreatedAt.UTC(),
		UpdatedAt:      a.UpdatedAt.UTC(),
	}
}

func newActivityList(acts []core.Activity) []activityResponse {
	out := make([]activityResponse, 0, len(acts))
	for _, a := range acts {
		out = append(out, newActivityResponse(a))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps error classes to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformed):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrReferenceNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, applog.ErrorTypeTimeout
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// writeError logs err and writes a JSON error. Internal failures get a
// generic message so storage details do not leak.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, errType, op, nil)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
