package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Physical Kind = "physical"
	Economic Kind = "economic"
)

// CurrencyMarker is the unit token that marks a factor as spend-based.
const CurrencyMarker = "USD"

type (
	// Kind tells how an activity's emissions were computed.
	Kind string

	EmissionFactor struct {
		ID       string
		Name     string // item name for physical factors, sector for economic ones
		Category string
		Unit     string
		Rate     float64 // kg CO2e per unit (or per USD for economic factors)
	}

	Activity struct {
		ID             string
		UserID         string
		FactorID       string
		ItemName       string // denormalized factor name at logging time
		Category       string // denormalized factor category at logging time
		Kind           Kind
		Quantity       float64
		MonetaryAmount float64
		Unit           string
		Date           time.Time // when the activity happened, not when it was logged
		Emissions      float64   // kg CO2e
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// ActivityInput is what a user submits when logging an activity.
	ActivityInput struct {
		FactorID       string
		Quantity       float64
		MonetaryAmount float64
		Date           time.Time
	}

	// ActivityPatch carries the optional fields of an edit. Nil fields keep
	// the stored value.
	ActivityPatch struct {
		FactorID       *string
		Quantity       *float64
		MonetaryAmount *float64
		Date           *time.Time
	}
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrReferenceNotFound = errors.New("reference not found")
)

// IsCurrencyUnit reports whether unit denotes money.
func IsCurrencyUnit(unit string) bool {
	return strings.Contains(strings.ToUpper(unit), CurrencyMarker)
}

// Kind returns the calculation mode implied by the factor's unit.
func (f EmissionFactor) Kind() Kind {
	if IsCurrencyUnit(f.Unit) {
		return Economic
	}
	return Physical
}

func (f EmissionFactor) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("%w: factor id is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: factor %s has no name", ErrInvalidInput, f.ID)
	}
	if strings.TrimSpace(f.Category) == "" {
		return fmt.Errorf("%w: factor %s has no category", ErrInvalidInput, f.ID)
	}
	if math.IsNaN(f.Rate) || math.IsInf(f.Rate, 0) || f.Rate < 0 {
		return fmt.Errorf("%w: factor %s rate must be a non-negative number", ErrInvalidInput, f.ID)
	}
	return nil
}

func (k Kind) Valid() bool {
	return k == Physical || k == Economic
}

// Input returns the value the emissions were computed from.
func (a Activity) Input() float64 {
	if a.Kind == Economic {
		return a.MonetaryAmount
	}
	return a.Quantity
}

// Merge applies the non-nil patch fields over the activity's current inputs.
func (p ActivityPatch) Merge(a Activity) ActivityInput {
	in := ActivityInput{
		FactorID:       a.FactorID,
		Quantity:       a.Quantity,
		MonetaryAmount: a.MonetaryAmount,
		Date:           a.Date,
	}
	if p.FactorID != nil && strings.TrimSpace(*p.FactorID) != "" {
		in.FactorID = strings.TrimSpace(*p.FactorID)
	}
	if p.Quantity != nil {
		in.Quantity = *p.Quantity
	}
	if p.MonetaryAmount != nil {
		in.MonetaryAmount = *p.MonetaryAmount
	}
	if p.Date != nil && !p.Date.IsZero() {
		in.Date = *p.Date
	}
	return in
}
