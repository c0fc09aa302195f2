package http

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"footprint/internal/core"
	"footprint/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", errMalformed), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", core.ErrInvalidInput), http.StatusUnprocessableEntity},
		{fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/", nil), "read", errors.New("sqlite: disk I/O error"))
	if rr.Code != http.StatusInternalServerError || strings.Contains(rr.Body.String(), "sqlite") {
		t.Fatalf("unexpected response %d %s", rr.Code, rr.Body.String())
	}
}

func TestActivityResponseEncodesOverflowedValues(t *testing.T) {
	a := core.Activity{ID: "a1", Kind: core.Physical, Emissions: math.Inf(1)}
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, newActivityResponse(a))
	if !strings.Contains(rr.Body.String(), `"total_co2e":1.7976931348623157e+308`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
