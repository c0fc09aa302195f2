// Package report shapes engine results into the JSON documents served by the
// API and printed by footprintctl. Quantities of CO2e and money are rounded
// to two decimals here and nowhere else.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"footprint/internal/core"
	"footprint/internal/services"
)

type (
	CategoryTotal struct {
		Category string  `json:"category"`
		TotalKg  float64 `json:"total_co2e_kg"`
	}

	ItemTotal struct {
		ItemName string  `json:"item_name"`
		TotalKg  float64 `json:"total_co2e_kg"`
	}

	SectorTotal struct {
		Sector     string  `json:"sector"`
		TotalSpend float64 `json:"total_spending_usd"`
		TotalKg    float64 `json:"total_co2e_kg"`
	}

	PhysicalImpactor struct {
		ItemName string  `json:"item_name"`
		TotalKg  float64 `json:"total_co2e_kg"`
	}

	EconomicImpactor struct {
		Sector  string  `json:"sector"`
		TotalKg float64 `json:"total_co2e_kg"`
	}

	// Impactors holds null members when a kind has no activities.
	Impactors struct {
		BiggestPhysical *PhysicalImpactor `json:"biggest_physical"`
		BiggestEconomic *EconomicImpactor `json:"biggest_economic"`
	}

	Bucket struct {
		Label     string    `json:"label"`
		Start     time.Time `json:"start"`
		Emissions float64   `json:"emissions"`
	}

	Split struct {
		PhysicalKg float64 `json:"physical_co2e_kg"`
		EconomicKg float64 `json:"economic_co2e_kg"`
		SpendUSD   float64 `json:"total_spending_usd"`
	}

	Dashboard struct {
		UserID        string          `json:"user_id"`
		ActivityCount int             `json:"activity_count"`
		TotalKg       float64         `json:"total_co2e_kg"`
		Split         Split           `json:"split"`
		Categories    []CategoryTotal `json:"by_category"`
		Physical      []ItemTotal     `json:"physical"`
		Economic      []SectorTotal   `json:"economic"`
		Impactors     Impactors       `json:"biggest_impactors"`
		Daily         []Bucket        `json:"daily"`
		Weekly        []Bucket        `json:"weekly"`
		Monthly       []Bucket        `json:"monthly"`
	}
)

// Round2 rounds half away from zero. Sums that overflowed are clamped to the
// largest float so they still encode as JSON.
func Round2(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// The byTotal flag applies a stable descending sort before rounding, so
// equal totals keep their first-seen order. Inputs are never reordered.

func Categories(totals []core.CategoryTotal, byTotal bool) []CategoryTotal {
	if byTotal {
		totals = append([]core.CategoryTotal(nil), totals...)
		sort.SliceStable(totals, func(i, j int) bool { return totals[i].TotalKg > totals[j].TotalKg })
	}
	out := make([]CategoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, CategoryTotal{Category: t.Category, TotalKg: Round2(t.TotalKg)})
	}
	return out
}

func Items(totals []core.ItemTotal, byTotal bool) []ItemTotal {
	if byTotal {
		totals = append([]core.ItemTotal(nil), totals...)
		sort.SliceStable(totals, func(i, j int) bool { return totals[i].TotalKg > totals[j].TotalKg })
	}
	out := make([]ItemTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, ItemTotal{ItemName: t.ItemName, TotalKg: Round2(t.TotalKg)})
	}
	return out
}

func Sectors(totals []core.SectorTotal, byTotal bool) []SectorTotal {
	if byTotal {
		totals = append([]core.SectorTotal(nil), totals...)
		sort.SliceStable(totals, func(i, j int) bool { return totals[i].TotalKg > totals[j].TotalKg })
	}
	out := make([]SectorTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, SectorTotal{
			Sector:     t.Sector,
			TotalSpend: Round2(t.TotalSpend),
			TotalKg:    Round2(t.TotalKg),
		})
	}
	return out
}

func NewImpactors(imp core.Impactors) Impactors {
	var out Impactors
	if imp.Physical != nil {
		out.BiggestPhysical = &PhysicalImpactor{ItemName: imp.Physical.Name, TotalKg: Round2(imp.Physical.TotalKg)}
	}
	if imp.Economic != nil {
		out.BiggestEconomic = &EconomicImpactor{Sector: imp.Economic.Name, TotalKg: Round2(imp.Economic.TotalKg)}
	}
	return out
}

func Buckets(buckets []core.Bucket) []Bucket {
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Bucket{Label: b.Label, Start: b.Start.UTC(), Emissions: Round2(b.Emissions)})
	}
	return out
}

func NewDashboard(d *services.Dashboard) Dashboard {
	return Dashboard{
		UserID:        d.UserID,
		ActivityCount: d.ActivityCount,
		TotalKg:       Round2(d.TotalKg),
		Split: Split{
			PhysicalKg: Round2(d.Split.PhysicalKg),
			EconomicKg: Round2(d.Split.EconomicKg),
			SpendUSD:   Round2(d.Split.SpendUSD),
		},
		Categories: Categories(d.Categories, false),
		Physical:   Items(d.Physical, false),
		Economic:   Sectors(d.Economic, false),
		Impactors:  NewImpactors(d.Impactors),
		Daily:      Buckets(d.Daily),
		Weekly:     Buckets(d.Weekly),
		Monthly:    Buckets(d.Monthly),
	}
}
