package ai

import (
	"strings"
	"testing"

	"greenviz_backend/internal/projects/domain"
)

func TestParseAnalysis(t *testing.T) {
	text := "Here is the analysis:\n```json\n" + `{
  "surfaceM2": 85.5,
  "buildingType": "roof",
  "orientation": "west",
  "visibleMaterials": ["tiles"],
  "obstacles": ["chimney", "skylight"],
  "existingVegetation": true,
  "recommendedDensity": "medium",
  "suggestedSpecies": ["Sedum album"]
}` + "\n```\nLet me know if you need more."

	got := ParseAnalysis(text)

	if got.SurfaceM2 != 85.5 {
		t.Fatalf("surface = %v, want 85.5", got.SurfaceM2)
	}
	if got.BuildingType != domain.BuildingRoof {
		t.Fatalf("building type = %q", got.BuildingType)
	}
	if !got.ExistingVegetation {
		t.Fatal("existing vegetation not parsed")
	}
	if got.RecommendedDensity != domain.DensityMedium {
		t.Fatalf("density = %q", got.RecommendedDensity)
	}
	if len(got.Obstacles) != 2 {
		t.Fatalf("obstacles = %v", got.Obstacles)
	}
}

func TestParseAnalysisFallsBackOnGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not analyze the image, sorry.",
		"{not json}",
	} {
		got := ParseAnalysis(text)
		if got.SurfaceM2 != 100 || got.BuildingType != domain.BuildingFacade {
			t.Fatalf("ParseAnalysis(%q) did not fall back to defaults: %+v", text, got)
		}
		if got.RecommendedDensity != domain.DensityDense {
			t.Fatalf("default density = %q", got.RecommendedDensity)
		}
	}
}

func TestParseAnalysisFillsMissingFields(t *testing.T) {
	got := ParseAnalysis(`{"surfaceM2": 40, "buildingType": "greenhouse"}`)

	if got.SurfaceM2 != 40 {
		t.Fatalf("surface = %v, want 40", got.SurfaceM2)
	}
	// Unknown enum values are replaced, valid ones kept.
	if got.BuildingType != domain.BuildingFacade {
		t.Fatalf("building type = %q, want facade fallback", got.BuildingType)
	}
	if len(got.SuggestedSpecies) == 0 || got.Orientation == "" {
		t.Fatalf("missing fields not defaulted: %+v", got)
	}
}

func TestBuildAnalysisPromptIncludesUserConstraint(t *testing.T) {
	prompt := BuildAnalysisPrompt("only the left wall")
	if !strings.Contains(prompt, "only the left wall") {
		t.Fatal("user description not embedded")
	}
	if !strings.Contains(BuildAnalysisPrompt(""), "Return ONLY the JSON") {
		t.Fatal("json instruction missing")
	}
}

func TestBuildGenerationPromptCoverage(t *testing.T) {
	dense := domain.Analysis{RecommendedDensity: domain.DensityDense, BuildingType: domain.BuildingFacade}
	medium := domain.Analysis{RecommendedDensity: domain.DensityMedium, BuildingType: domain.BuildingRoof}

	if !strings.Contains(BuildGenerationPrompt(dense, ""), "90-95%") {
		t.Fatal("dense coverage not applied")
	}
	p := BuildGenerationPrompt(medium, "")
	if !strings.Contains(p, "80-85%") {
		t.Fatal("medium coverage not applied")
	}
	if !strings.Contains(p, "Green roof") {
		t.Fatal("roof project type not applied")
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, contentType, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	if string(data) != "hello" || contentType != "image/png" {
		t.Fatalf("got %q %q", data, contentType)
	}

	for _, bad := range []string{
		"https://example.com/image.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		if _, _, err := DecodeDataURL(bad); err == nil {
			t.Fatalf("DecodeDataURL(%q) should fail", bad)
		}
	}
}
