// Package ai holds the prompt construction and response parsing shared by
// the vision/generation providers. Providers differ only in transport; the
// prompt contract and the JSON schema of the analysis are identical.
package ai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"greenviz_backend/internal/projects/domain"
)

// AnalysisModel and GenerationModel are the model identifiers used by both
// providers. OpenRouter prefixes them with the vendor namespace.
const (
	AnalysisModel   = "gemini-2.5-flash"
	GenerationModel = "gemini-2.5-flash-image-preview"
)

// BuildAnalysisPrompt constructs the vision analysis prompt. The model must
// answer with a single JSON object matching the analysis schema.
func BuildAnalysisPrompt(userDescription string) string {
	var b strings.Builder

	b.WriteString(`ROLE: You are a professional landscape architect specialized in green facades and living walls. Analyze this photo to prepare a realistic vegetation installation.

OBJECTIVE: Analyze the image and return structured data for the installation.

CRITICAL: If the photo shows SEVERAL facades or walls, identify PRECISELY the one to vegetate.

Return ONLY a JSON object with this exact structure:

{
  "surfaceM2": <estimated number>,
  "buildingType": "<facade|roof|mixed>",
  "orientation": "<north|south|east|west>",
  "visibleMaterials": ["<material1>", "<material2>"],
  "obstacles": ["<obstacle1>", "<obstacle2>"],
  "existingVegetation": <true|false>,
  "recommendedDensity": "<low|medium|dense>",
  "suggestedSpecies": ["Sedum acre", "Chlorophytum", "Nephrolepis", "..."]
}

DETAILED ANALYSIS:

1. Zone identification:
   - Describe every visible facade or roof plane
   - Identify PRECISELY the one to vegetate (position, exposure)
   - Explicitly list the others to EXCLUDE

2. Surface calculation:
   - Estimate height x width of the target zone
   - Exclude openings (windows, doors) with a 15cm margin

3. Obstacles to exclude:
   - Windows and frames (15cm margin)
   - Doors and frames (15cm margin)
   - Skylights, dormers, chimneys
   - Gutters, downpipes
   - Light fixtures, mailboxes, house numbers
   - Building corners (10cm margin)

4. Planting recommendations:
   - For a FACADE or WALL: favor Sedums (40%), Chlorophytum (30%), ferns (15%), succulents (15%)
   - For a ROOF: favor mixed Sedums (50%), grasses (25%), thyme (15%), perennials (10%)
   - Recommended density: "dense" for modular panels (90-95% coverage)`)

	if userDescription != "" {
		fmt.Fprintf(&b, "\n\nUSER CONSTRAINT:\n%q", userDescription)
	}

	b.WriteString("\n\nReturn ONLY the JSON, no additional text.")
	return b.String()
}

// BuildGenerationPrompt constructs the image generation prompt from a
// completed analysis. The hard constraint is identical framing: the output
// must differ from the input only by the added vegetation.
func BuildGenerationPrompt(a domain.Analysis, userDescription string) string {
	coverage := "80-85%"
	if a.RecommendedDensity == domain.DensityDense {
		coverage = "90-95%"
	}

	projectType := "Green facade / living wall with modular panels"
	if a.BuildingType == domain.BuildingRoof {
		projectType = "Green roof"
	}

	var b strings.Builder

	fmt.Fprintf(&b, `You are a professional landscape architect specialized in green facades and living walls. Your mission is to create an ULTRA-REALISTIC image showing the structure vegetated per the specifications below.

ABSOLUTE RULE - IDENTICAL FRAMING:
- KEEP EXACTLY the same viewpoint as the original image
- KEEP EXACTLY the same camera angle
- KEEP EXACTLY the same zoom level (no closer, no further)
- KEEP EXACTLY the same framing (same elements visible at the edges)
- KEEP EXACTLY the same building proportions inside the frame
- The generated image must be IDENTICAL to the original, except for the added vegetation

PROJECT TYPE: %s

TARGET ZONE:
- Surface: %g m2
- Type: %s
- Orientation: %s
- Density: %s (%s coverage)

OBSTACLES TO EXCLUDE:
`, projectType, a.SurfaceM2, a.BuildingType, a.Orientation, a.RecommendedDensity, coverage)

	for _, obstacle := range a.Obstacles {
		fmt.Fprintf(&b, "- %s\n", obstacle)
	}

	fmt.Fprintf(&b, `
PLANT COMPOSITION:
- Creeping green Sedums (40%%)
- Variegated Chlorophytum (30%%)
- Compact ferns (15%%)
- Grey succulents (15%%)

STRICT TECHNICAL CONSTRAINTS:
1. FRAMING: the final image must have EXACTLY the same framing as the original
2. ZOOM: do not zoom in or out, keep the same scale
3. ANGLE: keep exactly the same viewing angle
4. PROPORTIONS: buildings must keep the same proportions in the image
5. ELEMENTS: every element visible in the original must stay visible in place
6. PERSPECTIVE: keep the same perspective and depth of field
7. DIMENSIONS: generate the image with EXACTLY the same width and height as the original

VEGETATION INSTRUCTIONS:
- Add vegetation ONLY on the specified zones
- Do NOT alter the surroundings, the sky, the ground or adjacent buildings
- The vegetation must look naturally integrated
- Respect the sun exposure and orientation
- Produce a PHOTOREALISTIC render
- Coverage must reach %s
- Strictly respect the margins around obstacles (15cm for windows and doors, 10cm for corners)

EXPECTED RESULT:
An image identical to the original where ONLY the specified zone is vegetated, ultra-realistic.`, coverage)

	if userDescription != "" {
		fmt.Fprintf(&b, "\n\nCLIENT CONSTRAINT:\n%q", userDescription)
	}

	return b.String()
}

// defaultAnalysis is the fallback when the model's answer cannot be parsed.
// A plausible mid-range record keeps the flow alive instead of failing the
// whole generation on a formatting slip.
func defaultAnalysis() domain.Analysis {
	return domain.Analysis{
		SurfaceM2:          100,
		BuildingType:       domain.BuildingFacade,
		Orientation:        "south",
		VisibleMaterials:   []string{"concrete", "render"},
		Obstacles:          []string{"windows", "doors", "gutters"},
		ExistingVegetation: false,
		RecommendedDensity: domain.DensityDense,
		SuggestedSpecies: []string{
			"Sedum acre",
			"Chlorophytum",
			"Nephrolepis",
			"Fittonia",
			"Sedum reflexum",
			"Grey succulents",
		},
	}
}

// ParseAnalysis extracts the JSON object from the model's answer. Models
// routinely wrap the JSON in prose or code fences, so the parser scans for
// the outermost braces. Missing fields fall back to plausible defaults.
func ParseAnalysis(text string) domain.Analysis {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return defaultAnalysis()
	}

	var parsed domain.Analysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return defaultAnalysis()
	}

	defaults := defaultAnalysis()
	if parsed.SurfaceM2 <= 0 {
		parsed.SurfaceM2 = defaults.SurfaceM2
	}
	switch parsed.BuildingType {
	case domain.BuildingFacade, domain.BuildingRoof, domain.BuildingMixed:
	default:
		parsed.BuildingType = defaults.BuildingType
	}
	if parsed.Orientation == "" {
		parsed.Orientation = defaults.Orientation
	}
	if len(parsed.VisibleMaterials) == 0 {
		parsed.VisibleMaterials = defaults.VisibleMaterials
	}
	if len(parsed.Obstacles) == 0 {
		parsed.Obstacles = defaults.Obstacles
	}
	switch parsed.RecommendedDensity {
	case domain.DensityLow, domain.DensityMedium, domain.DensityDense:
	default:
		parsed.RecommendedDensity = defaults.RecommendedDensity
	}
	if len(parsed.SuggestedSpecies) == 0 {
		parsed.SuggestedSpecies = defaults.SuggestedSpecies
	}

	return parsed
}

// DecodeDataURL decodes a base64 data URL ("data:image/png;base64,...") into
// raw bytes and a content type.
func DecodeDataURL(url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "data:") {
		return nil, "", fmt.Errorf("not a data url")
	}

	comma := strings.Index(url, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data url")
	}

	meta := url[len("data:"):comma]
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == meta {
		return nil, "", fmt.Errorf("data url is not base64 encoded")
	}
	if contentType == "" {
		contentType = "image/png"
	}

	data, err := base64.StdEncoding.DecodeString(url[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode data url payload: %w", err)
	}
	return data, contentType, nil
}
