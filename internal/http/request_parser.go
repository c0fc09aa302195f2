package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"footprint/internal/core"
)

const maxBodyBytes = 1 << 20

// errMalformed marks request bodies that are not valid JSON for the route.
// It maps to 400, unlike domain validation failures which map to 422.
var errMalformed = errors.New("malformed request")

// activityRequest is the body of create and update calls. Pointers
// distinguish absent fields from zero values on update.
type activityRequest struct {
	FactorID       *string  `json:"factor_id"`
	Quantity       *float64 `json:"quantity"`
	MonetaryAmount *float64 `json:"monetary_amount"`
	Date           *string  `json:"date"`
}

func decodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type must be application/json", errMalformed)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errMalformed)
	}
	return nil
}

// ParseActivityInput decodes a create body. A missing date means now.
func ParseActivityInput(r *http.Request) (core.ActivityInput, error) {
	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.ActivityInput{}, err
	}

	var in core.ActivityInput
	if req.FactorID != nil {
		in.FactorID = strings.TrimSpace(*req.FactorID)
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.MonetaryAmount != nil {
		in.MonetaryAmount = *req.MonetaryAmount
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return core.ActivityInput{}, err
		}
		in.Date = d
	}
	return in, nil
}

// ParseActivityPatch decodes an update body; absent fields stay nil.
func ParseActivityPatch(r *http.Request) (core.ActivityPatch, error) {
	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.ActivityPatch{}, err
	}

	patch := core.ActivityPatch{
		Quantity:       req.Quantity,
		MonetaryAmount: req.MonetaryAmount,
	}
	if req.FactorID != nil {
		id := strings.TrimSpace(*req.FactorID)
		patch.FactorID = &id
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return core.ActivityPatch{}, err
		}
		patch.Date = &d
	}
	return patch, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC 3339", core.ErrInvalidInput, s)
}

// ParseLimit reads ?limit=; absent means 0 so the service default applies.
func ParseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", core.ErrInvalidInput)
	}
	return n, nil
}

// sortByTotal reports whether ?sort=total was requested. Other values are
// rejected so typos do not silently fall back to insertion order.
func sortByTotal(r *http.Request) (bool, error) {
	switch v := strings.TrimSpace(r.URL.Query().Get("sort")); v {
	case "":
		return false, nil
	case "total":
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown sort %q", core.ErrInvalidInput, v)
	}
}
