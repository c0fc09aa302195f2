package core

import (
	"errors"
	"math"
	"testing"
)

var (
	beef     = EmissionFactor{ID: "beef", Name: "Beef", Category: "Food", Unit: "kg", Rate: 27}
	flights  = EmissionFactor{ID: "air", Name: "Air transportation", Category: "Travel", Unit: "USD", Rate: 0.5}
	electric = EmissionFactor{ID: "kwh", Name: "Electricity", Category: "Energy", Unit: "kWh", Rate: 0.4}
)

func TestCalculatePhysical(t *testing.T) {
	c, err := Calculate(&beef, 2, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Kind != Physical || c.Emissions != 54 {
		t.Fatalf("unexpected calculation: %+v", c)
	}
	if c.Quantity != 2 || c.MonetaryAmount != 0 {
		t.Fatalf("inactive field must be neutral: %+v", c)
	}
}

func TestCalculateEconomic(t *testing.T) {
	c, err := Calculate(&flights, 7, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Kind != Economic || c.Emissions != 50 {
		t.Fatalf("unexpected calculation: %+v", c)
	}
	if c.Quantity != 1 || c.MonetaryAmount != 100 {
		t.Fatalf("inactive field must be neutral: %+v", c)
	}
}

func TestCalculateRejects(t *testing.T) {
	cases := []struct {
		name     string
		factor   *EmissionFactor
		quantity float64
		monetary float64
		want     error
	}{
		{"missing factor", nil, 1, 0, ErrReferenceNotFound},
		{"zero quantity", &beef, 0, 0, ErrInvalidInput},
		{"negative quantity", &beef, -1, 0, ErrInvalidInput},
		{"nan quantity", &beef, math.NaN(), 0, ErrInvalidInput},
		{"inf quantity", &beef, math.Inf(1), 0, ErrInvalidInput},
		{"zero spend", &flights, 1, 0, ErrInvalidInput},
		{"inf spend", &flights, 1, math.Inf(1), ErrInvalidInput},
		{"quantity overflows", &beef, 1e308, 0, ErrInvalidInput},
		{"spend overflows", &EmissionFactor{ID: "x", Name: "X", Category: "C", Unit: "USD", Rate: 10}, 1, math.MaxFloat64, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(tc.factor, tc.quantity, tc.monetary)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	var a Activity
	first, err := Calculate(&electric, 12.5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Apply(&a, electric)

	second, err := Calculate(&electric, a.Input(), a.MonetaryAmount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Fatalf("recompute changed result: %+v vs %+v", first, second)
	}
}

func TestApplyDenormalizesFactor(t *testing.T) {
	var a Activity
	c, _ := Calculate(&flights, 0, 40)
	c.Apply(&a, flights)
	if a.FactorID != "air" || a.ItemName != "Air transportation" || a.Category != "Travel" || a.Unit != "USD" {
		t.Fatalf("factor fields not copied: %+v", a)
	}
	if a.Kind != Economic || a.Quantity != 1 || a.MonetaryAmount != 40 || a.Emissions != 20 {
		t.Fatalf("calculation not applied: %+v", a)
	}
}
