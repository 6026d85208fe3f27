package rest

import (
	"net/http"

	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/service"
	"digitalmaturity/internal/transport/rest/handler"
	"digitalmaturity/internal/transport/rest/middleware"
	"digitalmaturity/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	QuestionService   *service.QuestionService
	AssessmentService *service.AssessmentService
	AdminService      *service.AdminService
	WSHub             *ws.Hub
	CORS              middleware.CORSConfig
	Logger            *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService, log)
	questionHandler := handler.NewQuestionHandler(c.AuthService, c.QuestionService, log)
	assessmentHandler := handler.NewAssessmentHandler(c.AssessmentService, log)
	adminHandler := handler.NewAdminHandler(c.AdminService, log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.CORS(c.CORS))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))

	r.HandleFunc("/health", health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", health).Methods("GET")

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	for _, name := range catalog.ThematicNames() {
		api.HandleFunc("/questions-"+name+"/categories", questionHandler.ThematicCategories(name)).Methods("GET", "OPTIONS")
	}

	// WebSocket routes authenticate through the query string
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, log)
		api.HandleFunc("/ws/admin", wsHandler.AdminWS).Methods("GET")
		api.HandleFunc("/ws/organization", wsHandler.OrganizationWS).Methods("GET")
	}

	// Organization routes
	orgRoutes := api.NewRoute().Subrouter()
	orgRoutes.Use(authMW.RequireOrganization)

	orgRoutes.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/auth/organization", authHandler.UpdateOrganization).Methods("PUT", "OPTIONS")

	orgRoutes.HandleFunc("/questions", questionHandler.Level1).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/questions/categories", questionHandler.Categories).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/questions-level2", questionHandler.Level2).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/questions-level2/check-eligibility", questionHandler.Eligibility).Methods("GET", "OPTIONS")
	for _, name := range catalog.ThematicNames() {
		orgRoutes.HandleFunc("/questions-"+name, questionHandler.Thematic(name)).Methods("GET", "OPTIONS")
	}

	orgRoutes.HandleFunc("/assessments", assessmentHandler.Create).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/assessments", assessmentHandler.List).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/assessments/{id}", assessmentHandler.Get).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/assessments/{id}/save-progress", assessmentHandler.SaveProgress).Methods("PUT", "OPTIONS")
	orgRoutes.HandleFunc("/assessments/{id}/submit", assessmentHandler.Submit).Methods("POST", "OPTIONS")
	orgRoutes.HandleFunc("/assessments/{id}/report", assessmentHandler.Report).Methods("GET", "OPTIONS")
	orgRoutes.HandleFunc("/assessments/{id}/export", assessmentHandler.Export).Methods("GET", "OPTIONS")

	// Admin routes
	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/organizations", adminHandler.Organizations).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/organizations/{id}", adminHandler.DeleteOrganization).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/stats", adminHandler.Stats).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/reset-password", adminHandler.ResetPassword).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/assessments/{id}", adminHandler.Assessment).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/assessments/{id}", adminHandler.DeleteAssessment).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/assessments/{id}/responses", adminHandler.Responses).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/assessments/{id}/regenerate", adminHandler.Regenerate).Methods("POST", "OPTIONS")

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
