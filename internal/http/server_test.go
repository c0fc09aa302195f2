package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"footprint/internal/core"
	"footprint/internal/report"
	"footprint/internal/services"
	"footprint/internal/store/memory"
)

var testFactors = []core.EmissionFactor{
	{ID: "beef", Name: "Beef", Category: "Food", Unit: "kg", Rate: 27},
	{ID: "rail", Name: "National rail", Category: "Transportation", Unit: "km", Rate: 0.035},
	{ID: "air", Name: "Air transportation", Category: "Transportation", Unit: "USD", Rate: 0.5},
	{ID: "power", Name: "Electricity", Category: "Energy", Unit: "kWh", Rate: 0.2333},
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memory.New(testFactors)
	srv := NewServer(":0", Deps{
		Factors:            st,
		Activities:         services.NewActivityService(st, st, nil),
		Summaries:          services.NewSummaryService(st),
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	st := memory.New(testFactors)
	down := NewServer(":0", Deps{
		Factors:    st,
		Activities: services.NewActivityService(st, st, nil),
		Summaries:  services.NewSummaryService(st),
		Ready:      func(context.Context) error { return errors.New("db gone") },
	})
	defer down.Shutdown(context.Background())
	if rr := do(t, down, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when not ready, got %d", rr.Code)
	}
}

func TestFactorRoutes(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/categories", "")
	cats := decode[[]string](t, rr)
	if strings.Join(cats, ",") != "Energy,Food,Transportation" {
		t.Fatalf("unexpected categories %v", cats)
	}

	rr = do(t, srv, http.MethodGet, "/emission-factors?category=transportation&search=AIR", "")
	factors := decode[[]factorResponse](t, rr)
	if len(factors) != 1 || factors[0].ID != "air" || factors[0].Kind != "economic" {
		t.Fatalf("unexpected factors %+v", factors)
	}

	rr = do(t, srv, http.MethodGet, "/emission-factors?search=zzz", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rr.Body.String())
	}
}

func TestActivityLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/users/u1/activities", `{"factor_id":"beef","quantity":2,"date":"2024-01-05"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[activityResponse](t, rr)
	if created.TotalCO2e != 54 || created.Kind != "physical" || created.UnitUsed != "kg" || created.Category != "Food" {
		t.Fatalf("unexpected created activity %+v", created)
	}
	if rr.Header().Get("Location") != "/users/u1/activities/"+created.ID {
		t.Fatalf("unexpected Location %q", rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodPut, "/users/u1/activities/"+created.ID, `{"quantity":1.5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated := decode[activityResponse](t, rr)
	if updated.TotalCO2e != 40.5 || updated.FactorID != "beef" || !updated.Date.Equal(created.Date) {
		t.Fatalf("partial update should keep other fields, got %+v", updated)
	}

	rr = do(t, srv, http.MethodGet, "/users/u1/activities?limit=10", "")
	list := decode[[]activityResponse](t, rr)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	if rr = do(t, srv, http.MethodDelete, "/users/u1/activities/"+created.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodDelete, "/users/u1/activities/"+created.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d", rr.Code)
	}
}

func TestActivityErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/users/u1/activities", `{"factor_id":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/users/u1/activities", `{"factor":"beef"}`, http.StatusBadRequest},
		{"unknown factor", http.MethodPost, "/users/u1/activities", `{"factor_id":"nope","quantity":1}`, http.StatusNotFound},
		{"zero quantity", http.MethodPost, "/users/u1/activities", `{"factor_id":"beef","quantity":0}`, http.StatusUnprocessableEntity},
		{"economic without spend", http.MethodPost, "/users/u1/activities", `{"factor_id":"air","quantity":3}`, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/users/u1/activities", `{"factor_id":"beef","quantity":1,"date":"05/01/2024"}`, http.StatusUnprocessableEntity},
		{"update missing activity", http.MethodPut, "/users/u1/activities/ghost", `{"quantity":1}`, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/users/u1/activities?limit=-1", "", http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPatch, "/users/u1/activities/x", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestActivitiesAreScopedToUser(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/users/alice/activities", `{"factor_id":"beef","quantity":1}`)
	a := decode[activityResponse](t, rr)

	if rr = do(t, srv, http.MethodDelete, "/users/bob/activities/"+a.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("other users must not reach the activity, got %d", rr.Code)
	}
	if rr = do(t, srv, http.MethodGet, "/users/bob/summary/by-category", ""); strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty summary for bob, got %s", rr.Body.String())
	}
}

func seed(t *testing.T, srv *Server) {
	t.Helper()
	for _, body := range []string{
		`{"factor_id":"rail","quantity":100,"date":"2024-01-01"}`,
		`{"factor_id":"beef","quantity":1,"date":"2024-01-02"}`,
		`{"factor_id":"air","monetary_amount":100,"date":"2024-01-08"}`,
		`{"factor_id":"power","quantity":3,"date":"2024-02-10T15:04:05Z"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/users/u1/activities", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestSummaryRoutes(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	cats := decode[[]report.CategoryTotal](t, do(t, srv, http.MethodGet, "/users/u1/summary/by-category", ""))
	if len(cats) != 3 || cats[0].Category != "Transportation" || cats[0].TotalKg != 53.5 || cats[2].TotalKg != 0.7 {
		t.Fatalf("unexpected categories %+v", cats)
	}

	sorted := decode[[]report.CategoryTotal](t, do(t, srv, http.MethodGet, "/users/u1/summary/by-category?sort=total", ""))
	if sorted[0].Category != "Transportation" || sorted[1].Category != "Food" || sorted[2].Category != "Energy" {
		t.Fatalf("unexpected sorted order %+v", sorted)
	}

	phys := decode[[]report.ItemTotal](t, do(t, srv, http.MethodGet, "/users/u1/summary/physical?sort=total", ""))
	if len(phys) != 3 || phys[0].ItemName != "Beef" || phys[0].TotalKg != 27 {
		t.Fatalf("unexpected physical %+v", phys)
	}

	eco := decode[[]report.SectorTotal](t, do(t, srv, http.MethodGet, "/users/u1/summary/economic", ""))
	if len(eco) != 1 || eco[0].Sector != "Air transportation" || eco[0].TotalSpend != 100 || eco[0].TotalKg != 50 {
		t.Fatalf("unexpected economic %+v", eco)
	}

	rr := do(t, srv, http.MethodGet, "/users/u1/summary/biggest-impactors", "")
	if got := strings.TrimSpace(rr.Body.String()); got != `{"biggest_physical":{"item_name":"Beef","total_co2e_kg":27},"biggest_economic":{"sector":"Air transportation","total_co2e_kg":50}}` {
		t.Fatalf("unexpected impactors body %s", got)
	}
	imp := decode[report.Impactors](t, rr)
	if imp.BiggestPhysical == nil || imp.BiggestPhysical.ItemName != "Beef" || imp.BiggestEconomic == nil || imp.BiggestEconomic.Sector != "Air transportation" {
		t.Fatalf("unexpected impactors %+v", imp)
	}

	weeks := decode[[]report.Bucket](t, do(t, srv, http.MethodGet, "/users/u1/summary/weekly", ""))
	if len(weeks) != 3 || weeks[0].Label != "2024-W01" || weeks[0].Emissions != 30.5 {
		t.Fatalf("unexpected weeks %+v", weeks)
	}

	months := decode[[]report.Bucket](t, do(t, srv, http.MethodGet, "/users/u1/summary/monthly", ""))
	if len(months) != 2 || months[0].Label != "2024-01" || months[1].Label != "2024-02" {
		t.Fatalf("unexpected months %+v", months)
	}

	if rr := do(t, srv, http.MethodGet, "/users/u1/summary/by-category?sort=name", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown sort should be rejected, got %d", rr.Code)
	}
}

func TestEmptyImpactorsAreNull(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/users/nobody/summary/biggest-impactors", "")
	if got := strings.TrimSpace(rr.Body.String()); got != `{"biggest_physical":null,"biggest_economic":null}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestOverflowingActivityRejected(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/users/u1/activities", `{"factor_id":"beef","quantity":1e308}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/users/u1/dashboard", ""); rr.Code != http.StatusOK {
		t.Fatalf("dashboard after rejected write: %d %s", rr.Code, rr.Body.String())
	}
	if list := decode[[]activityResponse](t, do(t, srv, http.MethodGet, "/users/u1/activities", "")); len(list) != 0 {
		t.Fatalf("rejected activity was stored: %+v", list)
	}
}

func TestDashboardRoute(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	d := decode[report.Dashboard](t, do(t, srv, http.MethodGet, "/users/u1/dashboard", ""))
	if d.ActivityCount != 4 || d.TotalKg != 81.2 {
		t.Fatalf("unexpected dashboard totals %+v", d)
	}
	if d.Split.EconomicKg != 50 || d.Split.SpendUSD != 100 {
		t.Fatalf("unexpected split %+v", d.Split)
	}
	if len(d.Daily) != 4 || len(d.Monthly) != 2 {
		t.Fatalf("unexpected bucket counts daily=%d monthly=%d", len(d.Daily), len(d.Monthly))
	}
}

func TestSuspiciousAndRateLimited(t *testing.T) {
	st := memory.New(testFactors)
	srv := NewServer(":0", Deps{
		Factors:            st,
		Activities:         services.NewActivityService(st, st, nil),
		Summaries:          services.NewSummaryService(st),
		RateLimitPerMinute: 2,
	})
	defer srv.Shutdown(context.Background())

	if rr := do(t, srv, http.MethodGet, "/.env", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected scanner request to be rejected, got %d", rr.Code)
	}

	do(t, srv, http.MethodGet, "/categories", "")
	do(t, srv, http.MethodGet, "/categories", "")
	rr := do(t, srv, http.MethodGet, "/categories", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("health checks must bypass the limiter, got %d", rr.Code)
	}
	if srv.Metrics().TotalRequests == 0 {
		t.Fatal("expected traced requests")
	}
}
