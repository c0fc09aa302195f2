package core

// The aggregators below group in first-seen order of the snapshot they are
// given. Callers pass the store's ordering (date ascending, then id), which
// keeps the output stable for unchanged data.

// CategoryTotals sums emissions per category.
func CategoryTotals(activities []Activity) []CategoryTotal {
	out := []CategoryTotal{}
	index := make(map[string]int)
	for _, a := range activities {
		i, ok := index[a.Category]
		if !ok {
			i = len(out)
			index[a.Category] = i
			out = append(out, CategoryTotal{Category: a.Category})
		}
		out[i].TotalKg += a.Emissions
	}
	return out
}

// PhysicalTotals sums emissions of physical activities per item name.
func PhysicalTotals(activities []Activity) []ItemTotal {
	out := []ItemTotal{}
	index := make(map[string]int)
	for _, a := range activities {
		if a.Kind != Physical {
			continue
		}
		i, ok := index[a.ItemName]
		if !ok {
			i = len(out)
			index[a.ItemName] = i
			out = append(out, ItemTotal{ItemName: a.ItemName})
		}
		out[i].TotalKg += a.Emissions
	}
	return out
}

// EconomicTotals sums emissions and spend of economic activities per sector.
func EconomicTotals(activities []Activity) []SectorTotal {
	out := []SectorTotal{}
	index := make(map[string]int)
	for _, a := range activities {
		if a.Kind != Economic {
			continue
		}
		i, ok := index[a.ItemName]
		if !ok {
			i = len(out)
			index[a.ItemName] = i
			out = append(out, SectorTotal{Sector: a.ItemName})
		}
		out[i].TotalKg += a.Emissions
		out[i].TotalSpend += a.MonetaryAmount
	}
	return out
}

func SplitByKind(activities []Activity) KindSplit {
	var s KindSplit
	for _, a := range activities {
		switch a.Kind {
		case Economic:
			s.EconomicKg += a.Emissions
			s.SpendUSD += a.MonetaryAmount
		case Physical:
			s.PhysicalKg += a.Emissions
		}
	}
	return s
}

// TotalEmissions is the plain sum of emissions over the snapshot.
func TotalEmissions(activities []Activity) float64 {
	var total float64
	for _, a := range activities {
		total += a.Emissions
	}
	return total
}

// BiggestImpactors picks the largest item and the largest sector. Ties go to
// the entry that appears first.
func BiggestImpactors(items []ItemTotal, sectors []SectorTotal) Impactors {
	var res Impactors
	for _, it := range items {
		if res.Physical == nil || it.TotalKg > res.Physical.TotalKg {
			res.Physical = &Impactor{Name: it.ItemName, TotalKg: it.TotalKg}
		}
	}
	for _, s := range sectors {
		if res.Economic == nil || s.TotalKg > res.Economic.TotalKg {
			res.Economic = &Impactor{Name: s.Sector, TotalKg: s.TotalKg}
		}
	}
	return res
}
