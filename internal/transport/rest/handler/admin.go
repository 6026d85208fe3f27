package handler

import (
	"net/http"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/service"

	"github.com/gorilla/mux"
)

// AdminHandler exposes the back-office operations
type AdminHandler struct {
	adminSvc *service.AdminService
	log      *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminSvc *service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, log: log}
}

// Organizations handles GET /api/admin/organizations
func (h *AdminHandler) Organizations(w http.ResponseWriter, r *http.Request) {
	list, err := h.adminSvc.ListOrganizations(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Assessment handles GET /api/admin/assessments/{id}
func (h *AdminHandler) Assessment(w http.ResponseWriter, r *http.Request) {
	detail, err := h.adminSvc.AssessmentDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Responses handles GET /api/admin/assessments/{id}/responses
func (h *AdminHandler) Responses(w http.ResponseWriter, r *http.Request) {
	resp, err := h.adminSvc.Responses(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminSvc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ResetPassword handles POST /api/admin/reset-password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.adminSvc.ResetPassword(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteAssessment handles DELETE /api/admin/assessments/{id}
func (h *AdminHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.adminSvc.DeleteAssessment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteOrganization handles DELETE /api/admin/organizations/{id}
func (h *AdminHandler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	resp, err := h.adminSvc.DeleteOrganization(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Regenerate handles POST /api/admin/assessments/{id}/regenerate
func (h *AdminHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.adminSvc.Regenerate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
