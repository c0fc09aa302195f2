package core

import (
	"fmt"
	"math"
)

// Calculation is the result of applying a factor to an activity input.
// The inactive input already holds its neutral value.
type Calculation struct {
	Kind           Kind
	Quantity       float64
	MonetaryAmount float64
	Emissions      float64
}

// Calculate converts a quantity or a spend into kg CO2e using f.
//
// Physical factors use quantity and force MonetaryAmount to 0; economic
// factors use monetary and force Quantity to 1. The inactive argument is
// ignored. A nil factor yields ErrReferenceNotFound; a non-positive or
// non-finite active input, or a product that is not finite, yields
// ErrInvalidInput.
func Calculate(f *EmissionFactor, quantity, monetary float64) (Calculation, error) {
	if f == nil {
		return Calculation{}, fmt.Errorf("%w: emission factor", ErrReferenceNotFound)
	}
	if err := f.Validate(); err != nil {
		return Calculation{}, err
	}

	if f.Kind() == Economic {
		if !positive(monetary) {
			return Calculation{}, fmt.Errorf("%w: monetary amount must be positive for economic activities", ErrInvalidInput)
		}
		return checked(Calculation{
			Kind:           Economic,
			Quantity:       1,
			MonetaryAmount: monetary,
			Emissions:      monetary * f.Rate,
		})
	}

	if !positive(quantity) {
		return Calculation{}, fmt.Errorf("%w: quantity must be positive for physical activities", ErrInvalidInput)
	}
	return checked(Calculation{
		Kind:           Physical,
		Quantity:       quantity,
		MonetaryAmount: 0,
		Emissions:      quantity * f.Rate,
	})
}

// checked rejects results whose product overflowed float64.
func checked(c Calculation) (Calculation, error) {
	if math.IsNaN(c.Emissions) || math.IsInf(c.Emissions, 0) {
		return Calculation{}, fmt.Errorf("%w: %s emissions are not a finite number", ErrInvalidInput, c.Kind)
	}
	return c, nil
}

// Apply copies the factor's denormalized fields and the calculation onto a.
func (c Calculation) Apply(a *Activity, f EmissionFactor) {
	a.FactorID = f.ID
	a.ItemName = f.Name
	a.Category = f.Category
	a.Unit = f.Unit
	a.Kind = c.Kind
	a.Quantity = c.Quantity
	a.MonetaryAmount = c.MonetaryAmount
	a.Emissions = c.Emissions
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
