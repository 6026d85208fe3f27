package handler

import (
	"net/http"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/service"
	"digitalmaturity/internal/transport/rest/middleware"
)

// QuestionHandler serves the level-1, level-2 and thematic catalogs
type QuestionHandler struct {
	authSvc     *service.AuthService
	questionSvc *service.QuestionService
	log         *logger.Logger
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(authSvc *service.AuthService, questionSvc *service.QuestionService, log *logger.Logger) *QuestionHandler {
	return &QuestionHandler{authSvc: authSvc, questionSvc: questionSvc, log: log}
}

// Level1 handles GET /api/questions, filtered by the caller's organization type
func (h *QuestionHandler) Level1(w http.ResponseWriter, r *http.Request) {
	org, err := h.authSvc.Me(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	questions, err := h.questionSvc.Level1(r.Context(), org.Type)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// Categories handles GET /api/questions/categories
func (h *QuestionHandler) Categories(w http.ResponseWriter, r *http.Request) {
	org, err := h.authSvc.Me(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	categories, err := h.questionSvc.Categories(r.Context(), org.Type)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// Eligibility handles GET /api/questions-level2/check-eligibility
func (h *QuestionHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	eligibility, err := h.questionSvc.Eligibility(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibility)
}

// Level2 handles GET /api/questions-level2
func (h *QuestionHandler) Level2(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.questionSvc.Level2(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// Thematic handles GET /api/questions-<name>
func (h *QuestionHandler) Thematic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog, err := h.questionSvc.Thematic(r.Context(), name)
		if err != nil {
			writeServiceError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, catalog)
	}
}

// ThematicCategories handles GET /api/questions-<name>/categories
func (h *QuestionHandler) ThematicCategories(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.questionSvc.ThematicCategories(r.Context(), name)
		if err != nil {
			writeServiceError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
	}
}
