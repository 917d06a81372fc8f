package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/internal/projects/ports"
	"greenviz_backend/internal/projects/pricing"
	"greenviz_backend/internal/projects/service"
	"greenviz_backend/platform/apperr"
	"greenviz_backend/platform/events"
	"greenviz_backend/platform/logger"
	"greenviz_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uuid.UUID]*domain.Project)}
}

func (r *fakeProjectRepo) store(p *domain.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ID] = &cp
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	r.store(p)
	return nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	r.store(p)
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, apperr.NotFound("project not found")
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) ListByLeadEmail(ctx context.Context, email string) ([]*domain.Project, error) {
	return nil, nil
}

func (r *fakeProjectRepo) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Project, error) {
	return nil, nil
}

type fakeLeadRepo struct{}

func (r *fakeLeadRepo) CreateLead(ctx context.Context, lead *domain.Lead) error { return nil }
func (r *fakeLeadRepo) UpdateLead(ctx context.Context, lead *domain.Lead) error { return nil }
func (r *fakeLeadRepo) GetLeadByProjectID(ctx context.Context, projectID uuid.UUID) (*domain.Lead, error) {
	return nil, nil
}

type fakeProvider struct {
	analysis domain.Analysis
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AnalyzeImage(ctx context.Context, imageURL, userDescription string) (domain.Analysis, error) {
	return p.analysis, nil
}

func (p *fakeProvider) GenerateImage(ctx context.Context, imageURL string, analysis domain.Analysis, userDescription string) (ports.GeneratedImage, error) {
	return ports.GeneratedImage{Data: []byte("png"), ContentType: "image/png"}, nil
}

type fakeStore struct{}

func (s *fakeStore) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	return "https://store.local/" + fileName, nil
}

type fakeBus struct{}

func (b *fakeBus) Publish(ctx context.Context, event events.Event)          {}
func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error { return nil }
func (b *fakeBus) Subscribe(eventName string, handler events.Handler)       {}

type testConfig struct{}

func (testConfig) GetMaxUploadSize() int64           { return 10 << 20 }
func (testConfig) GetAllowedImageFormats() []string  { return []string{"image/jpeg", "image/png"} }

func newTestRouter(t *testing.T, repo *fakeProjectRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(
		repo,
		&fakeLeadRepo{},
		&fakeProvider{analysis: domain.Analysis{
			SurfaceM2:          120,
			BuildingType:       domain.BuildingFacade,
			Orientation:        "south",
			RecommendedDensity: domain.DensityMedium,
		}},
		&fakeStore{},
		pricing.NewEngine(pricing.DefaultTable),
		&fakeBus{},
		logger.New("test"),
		time.Minute,
	)

	h := New(svc, testConfig{}, validator.New())
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestGenerateVisualizationExposesAnalysis(t *testing.T) {
	repo := newFakeProjectRepo()
	engine := newTestRouter(t, repo)

	project := domain.NewProject("https://store.local/original.jpg", nil, domain.Metadata{})
	repo.store(project)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+project.ID.String()+"/generate", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status       string           `json:"status"`
		AnalysisData *domain.Analysis `json:"analysisData"`
		Estimation   *json.RawMessage `json:"estimation"`
		GeneratedURL *string          `json:"generatedImageUrl"`
		IsUnlocked   bool             `json:"isUnlocked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Status != string(domain.StatusGenerated) {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusGenerated)
	}
	if resp.IsUnlocked {
		t.Error("project unexpectedly unlocked")
	}
	// The analysis is part of the generate response even before unlock.
	if resp.AnalysisData == nil {
		t.Fatal("generate response missing analysisData")
	}
	if resp.AnalysisData.SurfaceM2 != 120 {
		t.Errorf("analysis surface = %v, want 120", resp.AnalysisData.SurfaceM2)
	}
	if resp.Estimation == nil {
		t.Error("generate response missing estimation")
	}
	if resp.GeneratedURL == nil {
		t.Error("generate response missing generatedImageUrl")
	}
}

func TestGetProjectWithholdsAnalysisUntilUnlock(t *testing.T) {
	repo := newFakeProjectRepo()
	engine := newTestRouter(t, repo)

	project := domain.NewProject("https://store.local/original.jpg", nil, domain.Metadata{})
	repo.store(project)

	gen := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+project.ID.String()+"/generate", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, gen)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d", rec.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+project.ID.String(), nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	var resp struct {
		AnalysisData *domain.Analysis `json:"analysisData"`
		Estimation   *json.RawMessage `json:"estimation"`
		IsUnlocked   bool             `json:"isUnlocked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.AnalysisData != nil {
		t.Error("locked project view exposes analysisData")
	}
	if resp.Estimation == nil {
		t.Error("locked project view missing estimation")
	}
	if resp.IsUnlocked {
		t.Error("project unexpectedly unlocked")
	}
}
