// Package handler exposes the projects HTTP API: upload, generate, get,
// unlock, track. All endpoints are public; the resource identifier is the
// unguessable project UUID.
package handler

import (
	"io"
	"net/http"
	"strings"

	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/internal/projects/service"
	"greenviz_backend/internal/projects/transport"
	"greenviz_backend/platform/config"
	"greenviz_backend/platform/httpkit"
	"greenviz_backend/platform/imagemeta"
	"greenviz_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for visualization projects.
type Handler struct {
	svc *service.Service
	cfg config.UploadConfig
	val *validator.Validator
}

// New creates a new projects handler.
func New(svc *service.Service, cfg config.UploadConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, cfg: cfg, val: val}
}

// RegisterRoutes adds project routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("/by-email", h.GetProjectsByEmail)
		projects.GET("/:id", h.GetProject)
		projects.POST("/:id/generate", h.GenerateVisualization)
		projects.POST("/:id/unlock", h.UnlockProject)
		projects.POST("/:id/track", h.TrackAction)
	}
}

func parseProjectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid project id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) allowedFormat(contentType string) bool {
	for _, allowed := range h.cfg.GetAllowedImageFormats() {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// CreateProject accepts a multipart photo upload plus optional acquisition
// metadata form fields and opens a project.
func (h *Handler) CreateProject(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	defer file.Close()

	if header.Size > h.cfg.GetMaxUploadSize() {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "image exceeds the maximum upload size", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !h.allowedFormat(contentType) {
		httpkit.Error(c, http.StatusBadRequest, "unsupported image format", nil)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.GetMaxUploadSize()+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded image", nil)
		return
	}
	if int64(len(data)) > h.cfg.GetMaxUploadSize() {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "image exceeds the maximum upload size", nil)
		return
	}

	var userDescription *string
	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		userDescription = &desc
	}

	capture := imagemeta.Extract(data)
	metadata := domain.Metadata{
		UserAgent:   c.Request.UserAgent(),
		IP:          c.ClientIP(),
		Source:      c.PostForm("source"),
		UTMSource:   c.PostForm("utm_source"),
		UTMCampaign: c.PostForm("utm_campaign"),
		UTMMedium:   c.PostForm("utm_medium"),
		CapturedAt:  capture.CapturedAt,
		Latitude:    capture.Latitude,
		Longitude:   capture.Longitude,
		CameraMake:  capture.CameraMake,
	}

	project, err := h.svc.CreateProject(c.Request.Context(), service.CreateProjectInput{
		Image:           data,
		Filename:        header.Filename,
		ContentType:     contentType,
		UserDescription: userDescription,
		Metadata:        metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateProjectResponse{
		ID:               project.ID,
		Status:           string(project.Status),
		OriginalImageURL: project.OriginalImageURL,
	})
}

// GenerateVisualization runs the analysis and generation sequence for a
// project. This is a synchronous long call; the client polls nothing.
func (h *Handler) GenerateVisualization(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req transport.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	project, err := h.svc.GenerateVisualization(c.Request.Context(), id, req.Location)
	if httpkit.HandleError(c, err) {
		return
	}

	// The caller just drove the generation, so the analysis is not withheld
	// here. Redaction applies only when fetching a project later.
	httpkit.OK(c, transport.FullProjectResponse(project))
}

// GetProject returns the project view, withholding the analysis until the
// visitor has unlocked it.
func (h *Handler) GetProject(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	project, err := h.svc.GetProject(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ViewProjectResponse(project))
}

// GetProjectsByEmail lists the projects unlocked with a given email.
func (h *Handler) GetProjectsByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httpkit.Error(c, http.StatusBadRequest, "email query parameter is required", nil)
		return
	}

	projects, err := h.svc.GetProjectsByEmail(c.Request.Context(), email)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, transport.ViewProjectResponse(p))
	}
	httpkit.OK(c, transport.ProjectListResponse{Projects: out})
}

// UnlockProject exchanges an email for full access to a generated project.
func (h *Handler) UnlockProject(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req transport.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	project, _, err := h.svc.UnlockProject(c.Request.Context(), id, req.Email)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.UnlockResponse{
		Success: true,
		Project: transport.FullProjectResponse(project),
	})
}

// TrackAction records a lead engagement action. Unknown actions and projects
// without a lead acknowledge without recording anything.
func (h *Handler) TrackAction(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req transport.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.TrackLeadAction(c.Request.Context(), id, domain.ActionKind(req.Action)); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.TrackResponse{Success: true})
}
