package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/service"
	"digitalmaturity/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// AssessmentHandler handles the organization's assessment lifecycle
type AssessmentHandler struct {
	assessmentSvc *service.AssessmentService
	log           *logger.Logger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentSvc *service.AssessmentService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{assessmentSvc: assessmentSvc, log: log}
}

// Create handles POST /api/assessments. An empty body starts a level-1 assessment.
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAssessmentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.assessmentSvc.Create(r.Context(), middleware.GetOrganizationID(r.Context()), req.Level)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/assessments
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.assessmentSvc.List(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.assessmentSvc.Get(r.Context(), middleware.GetOrganizationID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SaveProgress handles PUT /api/assessments/{id}/save-progress
func (h *AssessmentHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	var req model.SaveProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.assessmentSvc.SaveProgress(r.Context(), middleware.GetOrganizationID(r.Context()), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Submit handles POST /api/assessments/{id}/submit
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.assessmentSvc.Submit(r.Context(), middleware.GetOrganizationID(r.Context()), mux.Vars(r)["id"], req.Answers)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Report handles GET /api/assessments/{id}/report
func (h *AssessmentHandler) Report(w http.ResponseWriter, r *http.Request) {
	resp, err := h.assessmentSvc.Report(r.Context(), middleware.GetOrganizationID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export handles GET /api/assessments/{id}/export?format=md|pdf|html
func (h *AssessmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatMarkdown
	}

	file, err := h.assessmentSvc.Export(r.Context(), middleware.GetOrganizationID(r.Context()), mux.Vars(r)["id"], format)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}
