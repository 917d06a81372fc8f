package pricing

import (
	"testing"

	"greenviz_backend/internal/projects/domain"
)

func analysis(surface float64, bt domain.BuildingType, obstacles, materials int) domain.Analysis {
	a := domain.Analysis{SurfaceM2: surface, BuildingType: bt}
	for i := 0; i < obstacles; i++ {
		a.Obstacles = append(a.Obstacles, "obstacle")
	}
	for i := 0; i < materials; i++ {
		a.VisibleMaterials = append(a.VisibleMaterials, "material")
	}
	return a
}

func TestEstimateBands(t *testing.T) {
	engine := NewEngine(DefaultTable)

	tests := []struct {
		name               string
		analysis           domain.Analysis
		location           string
		wantMin, wantMax   int
		wantPerM2, wantM2x int
	}{
		{
			name:     "simple facade mid surface",
			analysis: analysis(100, domain.BuildingFacade, 1, 2),
			location: "Lyon",
			wantMin:  9000, wantMax: 11000,
			wantPerM2: 90, wantM2x: 110,
		},
		{
			name:     "complex facade by obstacle count",
			analysis: analysis(100, domain.BuildingFacade, 3, 2),
			location: "Lyon",
			wantMin:  11000, wantMax: 13000,
			wantPerM2: 110, wantM2x: 130,
		},
		{
			name:     "complex facade by material count",
			analysis: analysis(100, domain.BuildingFacade, 0, 4),
			location: "Lyon",
			wantMin:  11000, wantMax: 13000,
			wantPerM2: 110, wantM2x: 130,
		},
		{
			name:     "boundary obstacles and materials stay simple",
			analysis: analysis(100, domain.BuildingFacade, 2, 3),
			location: "Lyon",
			wantMin:  9000, wantMax: 11000,
			wantPerM2: 90, wantM2x: 110,
		},
		{
			name:     "roof ignores complexity heuristic",
			analysis: analysis(100, domain.BuildingRoof, 5, 5),
			location: "Lyon",
			wantMin:  10000, wantMax: 12000,
			wantPerM2: 100, wantM2x: 120,
		},
		{
			name:     "mixed",
			analysis: analysis(100, domain.BuildingMixed, 0, 0),
			location: "Lyon",
			wantMin:  10500, wantMax: 12500,
			wantPerM2: 105, wantM2x: 125,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Estimate(tt.analysis, tt.location)
			if got.TotalMin != tt.wantMin || got.TotalMax != tt.wantMax {
				t.Fatalf("totals = %d-%d, want %d-%d", got.TotalMin, got.TotalMax, tt.wantMin, tt.wantMax)
			}
			if got.PricePerM2Min != tt.wantPerM2 || got.PricePerM2Max != tt.wantM2x {
				t.Fatalf("per m2 = %d-%d, want %d-%d", got.PricePerM2Min, got.PricePerM2Max, tt.wantPerM2, tt.wantM2x)
			}
		})
	}
}

func TestEstimateSurfaceAdjustment(t *testing.T) {
	engine := NewEngine(DefaultTable)

	tests := []struct {
		name      string
		surface   float64
		wantPerM2 int
	}{
		{"below small limit", 49, 103},  // round(90 * 1.15) = 103 in float64
		{"at small limit", 50, 90},      // boundary is exclusive
		{"at large limit", 200, 90},     // boundary is exclusive
		{"above large limit", 201, 81},  // 90 * 0.90
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Estimate(analysis(tt.surface, domain.BuildingFacade, 0, 0), "Lyon")
			if got.PricePerM2Min != tt.wantPerM2 {
				t.Fatalf("per m2 min = %d, want %d", got.PricePerM2Min, tt.wantPerM2)
			}
		})
	}
}

func TestEstimateRegionalPremium(t *testing.T) {
	engine := NewEngine(DefaultTable)
	a := analysis(100, domain.BuildingFacade, 0, 0)

	tests := []struct {
		location string
		premium  bool
	}{
		{"Paris", true},
		{"paris 15e", true},
		{"Boulogne, Île-de-France", true},
		{"ile-de-france", true},
		{"Lyon", false},
		{"Marseille", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got := engine.Estimate(a, tt.location)
			wantMin := 9000
			if tt.premium {
				wantMin = 9900
			}
			if got.TotalMin != wantMin {
				t.Fatalf("total min for %q = %d, want %d", tt.location, got.TotalMin, wantMin)
			}
		})
	}
}

func TestEstimateIncentive(t *testing.T) {
	engine := NewEngine(DefaultTable)

	got := engine.Estimate(analysis(100, domain.BuildingFacade, 0, 0), "Lyon")

	// 30% credit on 9000-11000.
	if got.Incentive.TaxCreditMin != 2700 || got.Incentive.TaxCreditMax != 3300 {
		t.Fatalf("credit = %d-%d, want 2700-3300", got.Incentive.TaxCreditMin, got.Incentive.TaxCreditMax)
	}
	if got.Incentive.NetCostMin != 6300 || got.Incentive.NetCostMax != 7700 {
		t.Fatalf("net = %d-%d, want 6300-7700", got.Incentive.NetCostMin, got.Incentive.NetCostMax)
	}
	if got.TotalMin != got.Incentive.TaxCreditMin+got.Incentive.NetCostMin {
		t.Fatal("credit and net must sum to the total")
	}
}

func TestEstimateDeterministic(t *testing.T) {
	engine := NewEngine(DefaultTable)
	a := analysis(137.5, domain.BuildingMixed, 2, 1)

	first := engine.Estimate(a, "Nantes")
	for i := 0; i < 10; i++ {
		if engine.Estimate(a, "Nantes") != first {
			t.Fatal("identical inputs must yield identical estimations")
		}
	}
}

func TestEstimateCarriesInputs(t *testing.T) {
	engine := NewEngine(DefaultTable)

	got := engine.Estimate(analysis(72, domain.BuildingRoof, 0, 0), "Toulouse")
	if got.SurfaceM2 != 72 || got.BuildingType != domain.BuildingRoof || got.Location != "Toulouse" {
		t.Fatalf("estimation must echo its inputs: %+v", got)
	}
}
