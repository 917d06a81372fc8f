// Package domain provides core business rules for the projects bounded context:
// the project lifecycle state machine, the lead record, and the email value
// object. Nothing in this package touches I/O.
package domain

import (
	"fmt"
	"time"

	"greenviz_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a project submission.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusAnalyzing  Status = "analyzing"
	StatusAnalyzed   Status = "analyzed"
	StatusGenerating Status = "generating"
	StatusGenerated  Status = "generated"
	StatusUnlocked   Status = "unlocked"
	StatusError      Status = "error"
)

// BuildingType classifies the photographed surface.
type BuildingType string

const (
	BuildingFacade BuildingType = "facade"
	BuildingRoof   BuildingType = "roof"
	BuildingMixed  BuildingType = "mixed"
)

// Density is the recommended planting density.
type Density string

const (
	DensityLow    Density = "low"
	DensityMedium Density = "medium"
	DensityDense  Density = "dense"
)

// Analysis is the structured output of the vision provider describing a
// building surface's suitability for vegetation.
type Analysis struct {
	SurfaceM2          float64      `json:"surfaceM2"`
	BuildingType       BuildingType `json:"buildingType"`
	Orientation        string       `json:"orientation"`
	VisibleMaterials   []string     `json:"visibleMaterials"`
	Obstacles          []string     `json:"obstacles"`
	ExistingVegetation bool         `json:"existingVegetation"`
	RecommendedDensity Density      `json:"recommendedDensity"`
	SuggestedSpecies   []string     `json:"suggestedSpecies"`
}

// Incentive holds the fixed-rate tax-credit figures derived from a total.
type Incentive struct {
	TaxCreditMin int `json:"taxCreditMin"`
	TaxCreditMax int `json:"taxCreditMax"`
	NetCostMin   int `json:"netCostMin"`
	NetCostMax   int `json:"netCostMax"`
}

// Estimation is the derived price range for a project. It is embedded in the
// project and never persisted independently.
type Estimation struct {
	SurfaceM2     float64      `json:"surfaceM2"`
	BuildingType  BuildingType `json:"buildingType"`
	TotalMin      int          `json:"totalMin"`
	TotalMax      int          `json:"totalMax"`
	PricePerM2Min int          `json:"pricePerM2Min"`
	PricePerM2Max int          `json:"pricePerM2Max"`
	Location      string       `json:"location"`
	Incentive     Incentive    `json:"incentive"`
}

// Metadata is the acquisition context captured at upload, used only for
// lead attribution.
type Metadata struct {
	UserAgent   string     `json:"userAgent,omitempty"`
	IP          string     `json:"ip,omitempty"`
	Source      string     `json:"source,omitempty"`
	UTMSource   string     `json:"utmSource,omitempty"`
	UTMCampaign string     `json:"utmCampaign,omitempty"`
	UTMMedium   string     `json:"utmMedium,omitempty"`
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CameraMake  string     `json:"cameraMake,omitempty"`
}

// Project is the aggregate root for one photo submission. All state
// transitions go through the guarded methods below; callers that skip a step
// get a typed precondition error instead of a silently corrupted record.
type Project struct {
	ID                uuid.UUID
	OriginalImageURL  string
	GeneratedImageURL *string
	Analysis          *Analysis
	Estimation        *Estimation
	UserDescription   *string
	LeadEmail         *string
	Status            Status
	Metadata          Metadata
	ErrorMessage      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProject creates a project in the uploaded state. The original image must
// already be durably stored.
func NewProject(originalImageURL string, userDescription *string, metadata Metadata) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:               uuid.New(),
		OriginalImageURL: originalImageURL,
		UserDescription:  userDescription,
		Status:           StatusUploaded,
		Metadata:         metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (p *Project) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Project) transitionErr(action string) *apperr.Error {
	return apperr.Precondition(fmt.Sprintf("cannot %s a project in status %q", action, p.Status))
}

// MarkAnalyzing moves the project into the analyzing state. Re-entry from
// the error state is allowed so a failed generation can be retried without
// creating a fresh project; the previous error message is cleared.
func (p *Project) MarkAnalyzing() error {
	if p.Status != StatusUploaded && p.Status != StatusError {
		return p.transitionErr("start analyzing")
	}
	p.Status = StatusAnalyzing
	p.ErrorMessage = nil
	p.touch()
	return nil
}

// CompleteAnalysis stores the analysis record and moves to analyzed.
func (p *Project) CompleteAnalysis(analysis Analysis) error {
	if p.Status != StatusAnalyzing {
		return p.transitionErr("complete analysis on")
	}
	p.Analysis = &analysis
	p.Status = StatusAnalyzed
	p.touch()
	return nil
}

// MarkGenerating moves the project into the generating state.
func (p *Project) MarkGenerating() error {
	if p.Status != StatusAnalyzed {
		return p.transitionErr("start generating")
	}
	p.Status = StatusGenerating
	p.touch()
	return nil
}

// CompleteGeneration stores the generated image reference and the estimation
// together and moves to generated. One is never stored without the other.
func (p *Project) CompleteGeneration(generatedImageURL string, estimation Estimation) error {
	if p.Status != StatusGenerating {
		return p.transitionErr("complete generation on")
	}
	if generatedImageURL == "" {
		return apperr.Precondition("generated image url must not be empty")
	}
	p.GeneratedImageURL = &generatedImageURL
	p.Estimation = &estimation
	p.Status = StatusGenerated
	p.touch()
	return nil
}

// MarkError records a failure message and moves to the terminal error state.
// Unlocked projects are final and cannot be failed.
func (p *Project) MarkError(message string) error {
	if p.Status == StatusUnlocked {
		return p.transitionErr("fail")
	}
	p.Status = StatusError
	p.ErrorMessage = &message
	p.touch()
	return nil
}

// Unlock records the captured email and moves to unlocked.
func (p *Project) Unlock(email Email) error {
	if !p.CanBeUnlocked() {
		return apperr.Precondition("project cannot be unlocked yet")
	}
	value := email.String()
	p.LeadEmail = &value
	p.Status = StatusUnlocked
	p.touch()
	return nil
}

// CanBeUnlocked reports whether an email capture may unlock the project.
func (p *Project) CanBeUnlocked() bool {
	return p.Status == StatusGenerated && p.GeneratedImageURL != nil
}

// IsUnlocked reports whether the full result may be revealed to the client.
func (p *Project) IsUnlocked() bool {
	return p.Status == StatusUnlocked && p.LeadEmail != nil
}
