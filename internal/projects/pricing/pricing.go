// Package pricing derives a cost-range estimation from an analysis record.
// The engine is a pure function over an immutable price table: identical
// inputs always yield identical outputs.
package pricing

import (
	"math"
	"strings"

	"greenviz_backend/internal/projects/domain"
)

// PriceRange is a per-m² price band in whole euros.
type PriceRange struct {
	Min float64
	Max float64
}

// Table holds the base per-m² price bands and the regional premium markers.
type Table struct {
	FacadeSimple  PriceRange
	FacadeComplex PriceRange
	Roof          PriceRange
	Mixed         PriceRange
	// HighCostMarkers are substrings of a location string that trigger the
	// regional premium, matched case-insensitively.
	HighCostMarkers []string
}

// DefaultTable is the production price table.
var DefaultTable = Table{
	FacadeSimple:    PriceRange{Min: 90, Max: 110},
	FacadeComplex:   PriceRange{Min: 110, Max: 130},
	Roof:            PriceRange{Min: 100, Max: 120},
	Mixed:           PriceRange{Min: 105, Max: 125},
	HighCostMarkers: []string{"paris", "île-de-france", "ile-de-france"},
}

const (
	smallSurfaceLimit      = 50.0
	largeSurfaceLimit      = 200.0
	smallSurfaceMultiplier = 1.15
	largeSurfaceMultiplier = 0.90
	regionalMultiplier     = 1.10
	taxCreditRate          = 0.30
)

// Engine computes estimations against a fixed table.
type Engine struct {
	table Table
}

// NewEngine creates a pricing engine. Pass DefaultTable outside of tests.
func NewEngine(table Table) Engine {
	return Engine{table: table}
}

// complexFacade applies the complexity heuristic: a facade with more than 2
// obstacles or more than 3 visible materials needs custom panel work.
func complexFacade(a domain.Analysis) bool {
	return len(a.Obstacles) > 2 || len(a.VisibleMaterials) > 3
}

func (e Engine) baseRange(a domain.Analysis) PriceRange {
	switch a.BuildingType {
	case domain.BuildingRoof:
		return e.table.Roof
	case domain.BuildingMixed:
		return e.table.Mixed
	default:
		if complexFacade(a) {
			return e.table.FacadeComplex
		}
		return e.table.FacadeSimple
	}
}

func (e Engine) isHighCostRegion(location string) bool {
	lowered := strings.ToLower(location)
	for _, marker := range e.table.HighCostMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func round(v float64) int {
	return int(math.Round(v))
}

// Estimate derives the price range for an analysis and a location string.
func (e Engine) Estimate(a domain.Analysis, location string) domain.Estimation {
	surface := a.SurfaceM2
	band := e.baseRange(a)

	perM2Min := band.Min
	perM2Max := band.Max

	// Surface-size adjustment: small jobs carry fixed setup overhead,
	// large ones amortize it.
	switch {
	case surface < smallSurfaceLimit:
		perM2Min *= smallSurfaceMultiplier
		perM2Max *= smallSurfaceMultiplier
	case surface > largeSurfaceLimit:
		perM2Min *= largeSurfaceMultiplier
		perM2Max *= largeSurfaceMultiplier
	}

	if e.isHighCostRegion(location) {
		perM2Min *= regionalMultiplier
		perM2Max *= regionalMultiplier
	}

	totalMin := round(surface * perM2Min)
	totalMax := round(surface * perM2Max)

	creditMin := round(float64(totalMin) * taxCreditRate)
	creditMax := round(float64(totalMax) * taxCreditRate)

	return domain.Estimation{
		SurfaceM2:     surface,
		BuildingType:  a.BuildingType,
		TotalMin:      totalMin,
		TotalMax:      totalMax,
		PricePerM2Min: round(perM2Min),
		PricePerM2Max: round(perM2Max),
		Location:      location,
		Incentive: domain.Incentive{
			TaxCreditMin: creditMin,
			TaxCreditMax: creditMax,
			NetCostMin:   totalMin - creditMin,
			NetCostMax:   totalMax - creditMax,
		},
	}
}
