package core

import (
	"errors"
	"math"
	"testing"
)

func TestIsCurrencyUnit(t *testing.T) {
	cases := []struct {
		unit string
		want bool
	}{
		{"USD", true},
		{"usd", true},
		{"2021 USD", true},
		{"kg", false},
		{"kWh", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsCurrencyUnit(tc.unit); got != tc.want {
			t.Fatalf("IsCurrencyUnit(%q) = %v, want %v", tc.unit, got, tc.want)
		}
	}
}

func TestFactorValidate(t *testing.T) {
	good := EmissionFactor{ID: "f1", Name: "Beef", Category: "Food", Unit: "kg", Rate: 27}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []EmissionFactor{
		{ID: "", Name: "Beef", Category: "Food", Unit: "kg", Rate: 1},
		{ID: "f", Name: " ", Category: "Food", Unit: "kg", Rate: 1},
		{ID: "f", Name: "Beef", Category: "", Unit: "kg", Rate: 1},
		{ID: "f", Name: "Beef", Category: "Food", Unit: "kg", Rate: -1},
		{ID: "f", Name: "Beef", Category: "Food", Unit: "kg", Rate: math.NaN()},
	}
	for i, f := range bads {
		err := f.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestFactorKind(t *testing.T) {
	if k := (EmissionFactor{Unit: "USD"}).Kind(); k != Economic {
		t.Fatalf("expected economic, got %s", k)
	}
	if k := (EmissionFactor{Unit: "litre"}).Kind(); k != Physical {
		t.Fatalf("expected physical, got %s", k)
	}
}

func TestPatchMerge(t *testing.T) {
	a := Activity{FactorID: "f1", Quantity: 2, Date: day(2024, 1, 5)}
	q := 5.0
	in := ActivityPatch{Quantity: &q}.Merge(a)
	if in.FactorID != "f1" || in.Quantity != 5 || !in.Date.Equal(a.Date) {
		t.Fatalf("unexpected merge: %+v", in)
	}

	blank := "  "
	in = ActivityPatch{FactorID: &blank}.Merge(a)
	if in.FactorID != "f1" {
		t.Fatalf("blank factor id should keep current, got %q", in.FactorID)
	}
}
