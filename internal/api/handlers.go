package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/directory"
	"github.com/mesikahq/patient-dashboard/internal/middleware"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

const maxAuditPageSize = 100

type Handler struct {
	state        *directory.State
	auditService audit.Service
	logger       *zap.Logger
}

func NewHandler(state *directory.State, auditService audit.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		state:        state,
		auditService: auditService,
		logger:       logger,
	}
}

// PatientSummary is the roster entry exposed by the JSON API.
type PatientSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            int    `json:"age"`
	ProfilePicture string `json:"profile_picture"`
}

func summarize(p patient.Patient) PatientSummary {
	return PatientSummary{
		ID:             p.ID,
		Name:           p.Name,
		Gender:         p.Gender,
		Age:            p.Age,
		ProfilePicture: p.ProfilePicture,
	}
}

// Dashboard renders the loading, error or dashboard page.
func (h *Handler) Dashboard(c *gin.Context) {
	page := dashboard.Build(h.state.Snapshot())

	status := http.StatusOK
	if page.View == dashboard.ViewFailed {
		status = http.StatusServiceUnavailable
	}
	c.HTML(status, dashboard.TemplateIndex, page)
}

// SelectPatientForm handles the sidebar selection form.
func (h *Handler) SelectPatientForm(c *gin.Context) {
	selected, err := h.state.SelectByID(c.Param("id"))
	switch {
	case errors.Is(err, directory.ErrPatientNotFound):
		c.HTML(http.StatusNotFound, dashboard.TemplateNotFound, gin.H{"title": "Patient not found"})
		return
	case err != nil:
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.recordAccess(c, selected)
	c.Redirect(http.StatusSeeOther, "/")
}

// GetDirectory reports the directory status with a roster summary.
func (h *Handler) GetDirectory(c *gin.Context) {
	snap := h.state.Snapshot()

	roster := make([]PatientSummary, len(snap.Patients))
	for i, p := range snap.Patients {
		roster[i] = summarize(p)
	}

	resp := gin.H{
		"status":   snap.Status,
		"loading":  snap.Loading,
		"patients": roster,
	}
	if snap.Failure != "" {
		resp["failure"] = snap.Failure
	}
	if snap.Selected != nil {
		resp["selected_id"] = snap.Selected.ID
	}
	c.JSON(http.StatusOK, resp)
}

// ListPatients returns the full roster.
func (h *Handler) ListPatients(c *gin.Context) {
	snap := h.state.Snapshot()
	if !h.requireLoaded(c, snap.Status) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  snap.Patients,
		"count": len(snap.Patients),
	})
}

// GetSelectedPatient returns the selected patient with its chart window.
func (h *Handler) GetSelectedPatient(c *gin.Context) {
	snap := h.state.Snapshot()
	if !h.requireLoaded(c, snap.Status) {
		return
	}
	if snap.Selected == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No patient selected"})
		return
	}

	page := dashboard.Build(snap)
	c.JSON(http.StatusOK, gin.H{
		"data":           snap.Selected,
		"chart":          page.Chart,
		"blood_pressure": page.BloodPressure,
		"vitals":         page.Vitals,
		"lab_results":    page.LabResults,
	})
}

type SelectPatientRequest struct {
	ID string `json:"id" binding:"required"`
}

// SelectPatient changes the selected patient.
func (h *Handler) SelectPatient(c *gin.Context) {
	var req SelectPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selected, err := h.state.SelectByID(req.ID)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrNotLoaded):
			h.requireLoaded(c, h.state.Status())
		case errors.Is(err, directory.ErrPatientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.recordAccess(c, selected)
	c.JSON(http.StatusOK, gin.H{
		"data":    selected,
		"message": "Patient selected",
	})
}

// GetAuditEvents lists indexed audit events, newest first.
func (h *Handler) GetAuditEvents(c *gin.Context) {
	from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if from < 0 {
		from = 0
	}
	if size <= 0 || size > maxAuditPageSize {
		size = maxAuditPageSize
	}

	filters := map[string]interface{}{}
	for _, key := range []string{"event_type", "resource_id", "status"} {
		if v := c.Query(key); v != "" {
			filters[key] = v
		}
	}

	events, err := h.auditService.QueryEvents(c.Request.Context(), filters, from, size)
	if err != nil {
		if errors.Is(err, audit.ErrIndexDisabled) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to query audit events", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to query audit events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"directory": h.state.Status(),
	})
}

// requireLoaded writes the error response for a directory that is not
// loaded and reports whether the caller may proceed.
func (h *Handler) requireLoaded(c *gin.Context, status directory.Status) bool {
	switch status {
	case directory.StatusLoaded:
		return true
	case directory.StatusLoading:
		c.JSON(http.StatusConflict, gin.H{"error": "Patient data is still loading"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load patient data"})
	}
	return false
}

func (h *Handler) recordAccess(c *gin.Context, selected patient.Patient) {
	if h.auditService == nil {
		return
	}

	event := &audit.AuditEvent{
		EventType:   audit.EventAccess,
		Action:      "SELECT",
		Resource:    "patient",
		ResourceID:  selected.ID,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		RequestID:   c.GetString(middleware.RequestIDKey),
		Status:      "success",
		Sensitivity: "PHI",
	}
	if err := h.auditService.LogEvent(context.WithoutCancel(c.Request.Context()), event); err != nil {
		h.logger.Warn("Failed to record audit event",
			zap.String("patient_id", selected.ID),
			zap.Error(err),
		)
	}
}
