package handler

import (
	"net/http"

	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/service"
	"digitalmaturity/internal/transport/rest/middleware"
)

// AuthHandler handles registration, login and the organization profile
type AuthHandler struct {
	authSvc *service.AuthService
	log     *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	org, err := h.authSvc.Me(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// UpdateOrganization handles PUT /api/auth/organization
func (h *AuthHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	org, err := h.authSvc.UpdateOrganization(r.Context(), middleware.GetOrganizationID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}
