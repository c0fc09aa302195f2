package core

import "time"

// CategoryTotal is the emissions total of one category.
type CategoryTotal struct {
	Category string
	TotalKg  float64
}

// ItemTotal is the emissions total of one physical item.
type ItemTotal struct {
	ItemName string
	TotalKg  float64
}

// SectorTotal is the emissions and spend total of one economic sector.
type SectorTotal struct {
	Sector     string
	TotalKg    float64
	TotalSpend float64 // USD
}

// KindSplit is the physical vs economic breakdown of a snapshot.
type KindSplit struct {
	PhysicalKg float64
	EconomicKg float64
	SpendUSD   float64
}

// Impactor is the single biggest contributor of one kind.
type Impactor struct {
	Name    string
	TotalKg float64
}

// Impactors holds one impactor per kind. A nil field means the user has
// no activities of that kind.
type Impactors struct {
	Physical *Impactor
	Economic *Impactor
}

// Bucket is one point of a time series.
type Bucket struct {
	Label     string
	Start     time.Time // UTC start of the bucket
	Emissions float64
}
