package domain

import (
	"testing"

	"greenviz_backend/platform/apperr"
)

func testAnalysis() Analysis {
	return Analysis{
		SurfaceM2:          80,
		BuildingType:       BuildingFacade,
		Orientation:        "south",
		RecommendedDensity: DensityMedium,
	}
}

func testEstimation() Estimation {
	return Estimation{
		SurfaceM2:    80,
		BuildingType: BuildingFacade,
		TotalMin:     7200,
		TotalMax:     8800,
		Location:     "Lyon",
	}
}

func mustEmail(t *testing.T, raw string) Email {
	t.Helper()
	email, err := NewEmail(raw)
	if err != nil {
		t.Fatalf("NewEmail(%q): %v", raw, err)
	}
	return email
}

// advance walks a fresh project to the given status.
func advance(t *testing.T, target Status) *Project {
	t.Helper()
	p := NewProject("https://store.local/photo.jpg", nil, Metadata{})
	steps := []struct {
		status Status
		do     func() error
	}{
		{StatusAnalyzing, p.MarkAnalyzing},
		{StatusAnalyzed, func() error { return p.CompleteAnalysis(testAnalysis()) }},
		{StatusGenerating, p.MarkGenerating},
		{StatusGenerated, func() error { return p.CompleteGeneration("https://store.local/after.png", testEstimation()) }},
		{StatusUnlocked, func() error { return p.Unlock(mustEmail(t, "a@b.fr")) }},
	}
	for _, step := range steps {
		if p.Status == target {
			return p
		}
		if err := step.do(); err != nil {
			t.Fatalf("advance to %q: %v", step.status, err)
		}
	}
	if p.Status != target {
		t.Fatalf("cannot advance to %q", target)
	}
	return p
}

func TestLifecycleHappyPath(t *testing.T) {
	p := advance(t, StatusUnlocked)

	if p.Analysis == nil || p.Estimation == nil || p.GeneratedImageURL == nil {
		t.Fatalf("unlocked project missing results: %+v", p)
	}
	if p.LeadEmail == nil || *p.LeadEmail != "a@b.fr" {
		t.Fatalf("lead email = %v", p.LeadEmail)
	}
	if !p.IsUnlocked() {
		t.Fatal("IsUnlocked() = false for an unlocked project")
	}
}

func TestTransitionsRejectWrongState(t *testing.T) {
	tests := []struct {
		name string
		from Status
		do   func(p *Project) error
	}{
		{"analyze from generated", StatusGenerated, func(p *Project) error { return p.MarkAnalyzing() }},
		{"complete analysis from uploaded", StatusUploaded, func(p *Project) error { return p.CompleteAnalysis(testAnalysis()) }},
		{"generate from uploaded", StatusUploaded, func(p *Project) error { return p.MarkGenerating() }},
		{"generate from analyzing", StatusAnalyzing, func(p *Project) error { return p.MarkGenerating() }},
		{"complete generation from analyzed", StatusAnalyzed, func(p *Project) error {
			return p.CompleteGeneration("https://x", testEstimation())
		}},
		{"unlock from analyzed", StatusAnalyzed, func(p *Project) error { return p.Unlock(mustEmail(t, "a@b.fr")) }},
		{"fail unlocked", StatusUnlocked, func(p *Project) error { return p.MarkError("boom") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := advance(t, tt.from)
			err := tt.do(p)
			if !apperr.Is(err, apperr.KindPrecondition) {
				t.Fatalf("err = %v, want precondition", err)
			}
			if p.Status != tt.from {
				t.Fatalf("rejected transition changed status to %q", p.Status)
			}
		})
	}
}

func TestCompleteGenerationRequiresURL(t *testing.T) {
	p := advance(t, StatusGenerating)

	err := p.CompleteGeneration("", testEstimation())
	if !apperr.Is(err, apperr.KindPrecondition) {
		t.Fatalf("err = %v, want precondition", err)
	}
	if p.GeneratedImageURL != nil || p.Estimation != nil {
		t.Fatal("nothing should be recorded on failure")
	}
}

func TestMarkErrorFromAnyActiveState(t *testing.T) {
	for _, from := range []Status{StatusUploaded, StatusAnalyzing, StatusAnalyzed, StatusGenerating, StatusGenerated} {
		p := advance(t, from)
		if err := p.MarkError("provider down"); err != nil {
			t.Fatalf("MarkError from %q: %v", from, err)
		}
		if p.Status != StatusError || p.ErrorMessage == nil {
			t.Fatalf("error state not recorded from %q", from)
		}
	}
}

func TestRetryFromErrorClearsMessage(t *testing.T) {
	p := advance(t, StatusAnalyzing)
	if err := p.MarkError("transient"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	if err := p.MarkAnalyzing(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if p.Status != StatusAnalyzing {
		t.Fatalf("status = %q", p.Status)
	}
	if p.ErrorMessage != nil {
		t.Fatalf("error message should be cleared, got %q", *p.ErrorMessage)
	}
}

func TestCanBeUnlocked(t *testing.T) {
	if advance(t, StatusGenerating).CanBeUnlocked() {
		t.Fatal("generating project must not be unlockable")
	}
	if !advance(t, StatusGenerated).CanBeUnlocked() {
		t.Fatal("generated project must be unlockable")
	}
	if advance(t, StatusUnlocked).CanBeUnlocked() {
		t.Fatal("unlocked project must not be unlockable twice")
	}
}

func TestLeadTrackIdempotent(t *testing.T) {
	lead := NewLead(mustEmail(t, "a@b.fr"), NewProject("u", nil, Metadata{}).ID, Metadata{Source: "landing"})

	changed, known := lead.Track(ActionCalendlyClick)
	if !changed || !known {
		t.Fatalf("first track: changed=%v known=%v", changed, known)
	}
	first := *lead.CalendlyClickedAt

	changed, known = lead.Track(ActionCalendlyClick)
	if changed || !known {
		t.Fatalf("repeat track: changed=%v known=%v", changed, known)
	}
	if !lead.CalendlyClickedAt.Equal(first) {
		t.Fatal("repeat must keep the first timestamp")
	}

	changed, known = lead.Track(ActionKind("share"))
	if changed || known {
		t.Fatalf("unknown kind: changed=%v known=%v", changed, known)
	}
}
