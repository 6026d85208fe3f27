package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository/repotest"
	"digitalmaturity/internal/scoring"
	"digitalmaturity/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminKey = "test-admin-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	orgs := repotest.NewOrganizationRepo()
	assessments := repotest.NewAssessmentRepo()
	questions := repotest.NewQuestionRepo()

	authSvc := service.NewAuthService(orgs, nil, service.AuthConfig{
		JWTSecret:   "test-secret",
		AdminSecret: adminKey,
		TokenTTL:    time.Hour,
	}, nil)
	questionSvc := service.NewQuestionService(questions, assessments, nil, nil)
	_, err := questionSvc.Seed(context.Background())
	require.NoError(t, err)

	engine := scoring.NewEngine(scoring.DefaultConfig())
	assessmentSvc := service.NewAssessmentService(assessments, orgs, questionSvc, engine, nil, nil, nil)
	adminSvc := service.NewAdminService(orgs, assessments, assessmentSvc, questionSvc, nil, nil, nil)

	return NewRouter(&Container{
		AuthService:       authSvc,
		QuestionService:   questionSvc,
		AssessmentService: assessmentSvc,
		AdminService:      adminSvc,
	})
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	headers map[string]string
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	r := httptest.NewRequest(req.method, req.path, &body)
	r.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func register(t *testing.T, h http.Handler, name string) *model.TokenResponse {
	t.Helper()
	w := do(t, h, request{method: "POST", path: "/api/auth/register", body: model.RegisterRequest{
		Name:     name,
		Type:     model.OrgCompany,
		Email:    "info@example.com",
		Password: "secret123",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp model.TokenResponse
	decode(t, w, &resp)
	return &resp
}

func level1Answers(t *testing.T, option int) []model.Answer {
	t.Helper()
	all, err := catalog.Level1()
	require.NoError(t, err)
	var out []model.Answer
	for _, q := range catalog.ForOrganization(all, model.OrgCompany) {
		out = append(out, model.Answer{QuestionID: q.ID, SelectedOption: option})
	}
	return out
}

func createAssessment(t *testing.T, h http.Handler, token string, level int) *model.Assessment {
	t.Helper()
	w := do(t, h, request{method: "POST", path: "/api/assessments", token: token, body: model.CreateAssessmentRequest{Level: level}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a model.Assessment
	decode(t, w, &a)
	return &a
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/health", "/api/health"} {
		w := do(t, h, request{method: "GET", path: path})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, request{method: "GET", path: "/health", headers: map[string]string{"X-Request-ID": "req-42"}})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, request{method: "OPTIONS", path: "/api/assessments"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")
	require.NotEmpty(t, reg.AccessToken)
	require.Len(t, reg.AccessCode, 8)

	w := do(t, h, request{method: "POST", path: "/api/auth/login", body: model.LoginRequest{
		AccessCode: strings.ToLower(reg.AccessCode),
		Password:   "secret123",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login model.TokenResponse
	decode(t, w, &login)
	assert.Equal(t, "bearer", login.TokenType)

	w = do(t, h, request{method: "GET", path: "/api/auth/me", token: login.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	var org model.Organization
	decode(t, w, &org)
	assert.Equal(t, "Acme Srl", org.Name)
	assert.Equal(t, reg.AccessCode, org.AccessCode)
	assert.NotContains(t, w.Body.String(), "secret123")

	sector := "Manifattura"
	w = do(t, h, request{method: "PUT", path: "/api/auth/organization", token: login.AccessToken,
		body: model.UpdateOrganizationRequest{Sector: &sector}})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &org)
	assert.Equal(t, "Manifattura", org.Sector)
}

func TestAuth_Failures(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")

	tests := []struct {
		name    string
		req     request
		status  int
		message string
	}{
		{
			name:    "wrong password",
			req:     request{method: "POST", path: "/api/auth/login", body: model.LoginRequest{AccessCode: reg.AccessCode, Password: "nope"}},
			status:  http.StatusUnauthorized,
			message: "Codice di accesso o password non validi",
		},
		{
			name:    "unknown code",
			req:     request{method: "POST", path: "/api/auth/login", body: model.LoginRequest{AccessCode: "ZZZZZZZZ", Password: "secret123"}},
			status:  http.StatusUnauthorized,
			message: "Codice di accesso o password non validi",
		},
		{
			name:    "missing token",
			req:     request{method: "GET", path: "/api/assessments"},
			status:  http.StatusUnauthorized,
			message: "Token mancante",
		},
		{
			name:    "garbage token",
			req:     request{method: "GET", path: "/api/assessments", token: "not-a-jwt"},
			status:  http.StatusUnauthorized,
			message: "Credenziali non valide",
		},
		{
			name:    "admin without key",
			req:     request{method: "GET", path: "/api/admin/stats"},
			status:  http.StatusUnauthorized,
			message: "Chiave admin non valida",
		},
		{
			name:    "organization token is not an admin key",
			req:     request{method: "GET", path: "/api/admin/stats", token: reg.AccessToken},
			status:  http.StatusUnauthorized,
			message: "Chiave admin non valida",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, errorMessage(t, w))
		})
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, request{method: "POST", path: "/api/auth/register", body: model.RegisterRequest{
		Name:     "Acme",
		Type:     "cooperativa",
		Email:    "info@example.com",
		Password: "secret123",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuestions(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")

	w := do(t, h, request{method: "GET", path: "/api/questions", token: reg.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	var questions []model.Question
	decode(t, w, &questions)
	assert.Len(t, questions, len(level1Answers(t, 0)))

	w = do(t, h, request{method: "GET", path: "/api/questions/categories", token: reg.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	var categories struct {
		Categories []string `json:"categories"`
	}
	decode(t, w, &categories)
	assert.NotEmpty(t, categories.Categories)

	w = do(t, h, request{method: "GET", path: "/api/questions-level2/check-eligibility", token: reg.AccessToken})
	require.Equal(t, http.StatusOK, w.Code)
	var eligibility model.Eligibility
	decode(t, w, &eligibility)
	assert.False(t, eligibility.Eligible)

	w = do(t, h, request{method: "GET", path: "/api/questions-level2", token: reg.AccessToken})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestThematicQuestionnaires(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Comune di Prova")

	tests := []struct {
		path          string
		total         int
		firstCategory string
	}{
		{"/api/questions-governance", 21, "Trasparenza Amministrativa"},
		{"/api/questions-iso56002", 25, "Contesto dell'Organizzazione"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, h, request{method: "GET", path: tt.path})
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = do(t, h, request{method: "GET", path: tt.path, token: reg.AccessToken})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var cat model.ThematicCatalog
			decode(t, w, &cat)
			assert.Equal(t, tt.total, cat.Total)
			assert.Len(t, cat.Questions, tt.total)
			assert.Equal(t, tt.firstCategory, cat.Categories[0])

			// categories are public
			w = do(t, h, request{method: "GET", path: tt.path + "/categories"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var categories struct {
				Categories []string `json:"categories"`
			}
			decode(t, w, &categories)
			assert.Equal(t, cat.Categories, categories.Categories)
		})
	}

	w := do(t, h, request{method: "GET", path: "/api/questions-patto-di-senso", token: reg.AccessToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssessmentLifecycle(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")
	token := reg.AccessToken

	a := createAssessment(t, h, token, model.Level1)
	assert.Equal(t, model.StatusInProgress, a.Status)
	path := "/api/assessments/" + a.ID

	answers := level1Answers(t, 2)
	w := do(t, h, request{method: "PUT", path: path + "/save-progress", token: token,
		body: model.SaveProgressRequest{Answers: answers[:3], Seq: 2}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved model.SaveProgressResponse
	decode(t, w, &saved)
	assert.True(t, saved.Applied)

	// an older snapshot arriving late is ignored
	w = do(t, h, request{method: "PUT", path: path + "/save-progress", token: token,
		body: model.SaveProgressRequest{Answers: answers[:1], Seq: 1}})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &saved)
	assert.False(t, saved.Applied)
	assert.EqualValues(t, 2, saved.Seq)

	w = do(t, h, request{method: "GET", path: path, token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var loaded model.Assessment
	decode(t, w, &loaded)
	assert.Len(t, loaded.Responses.Answers, 3)

	w = do(t, h, request{method: "GET", path: path + "/report", token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Assessment non ancora completato", errorMessage(t, w))

	w = do(t, h, request{method: "POST", path: path + "/submit", token: token, body: model.SubmitRequest{Answers: answers}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done model.Assessment
	decode(t, w, &done)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.MaturityLevel)
	require.NotNil(t, done.Report)

	w = do(t, h, request{method: "POST", path: path + "/submit", token: token, body: model.SubmitRequest{Answers: answers}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, request{method: "GET", path: path + "/report", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var rep model.ReportResponse
	decode(t, w, &rep)
	assert.Contains(t, rep.Report, "REPORT DI MATURITÀ DIGITALE")
	assert.Equal(t, done.MaturityLabel, rep.MaturityLabel)

	w = do(t, h, request{method: "GET", path: "/api/assessments", token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.AssessmentSummary
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, model.StatusCompleted, list[0].Status)

	w = do(t, h, request{method: "GET", path: "/api/questions-level2/check-eligibility", token: token})
	var eligibility model.Eligibility
	decode(t, w, &eligibility)
	assert.True(t, eligibility.Eligible)
}

func TestAssessmentExport(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")
	a := createAssessment(t, h, reg.AccessToken, model.Level1)
	path := "/api/assessments/" + a.ID

	w := do(t, h, request{method: "POST", path: path + "/submit", token: reg.AccessToken,
		body: model.SubmitRequest{Answers: level1Answers(t, 1)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"", "text/markdown", "# REPORT"},
		{"md", "text/markdown", "# REPORT"},
		{"html", "text/html", "<!DOCTYPE html>"},
		{"pdf", "application/pdf", "%PDF-"},
	}
	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			w := do(t, h, request{method: "GET", path: path + "/export?format=" + tt.format, token: reg.AccessToken})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), tt.contentType))
			assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
			assert.True(t, strings.HasPrefix(w.Body.String(), tt.prefix))
		})
	}

	w = do(t, h, request{method: "GET", path: path + "/export?format=docx", token: reg.AccessToken})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssessment_InvalidAnswers(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")
	a := createAssessment(t, h, reg.AccessToken, model.Level1)
	path := "/api/assessments/" + a.ID

	answers := level1Answers(t, 0)
	answers[0].SelectedOption = 99

	w := do(t, h, request{method: "POST", path: path + "/submit", token: reg.AccessToken, body: model.SubmitRequest{Answers: answers}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, request{method: "PUT", path: path + "/save-progress", token: reg.AccessToken,
		body: model.SaveProgressRequest{Answers: []model.Answer{{QuestionID: 9999}}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, request{method: "POST", path: "/api/assessments", token: reg.AccessToken, body: model.CreateAssessmentRequest{Level: model.Level2}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssessment_ForeignOrganizationIsNotFound(t *testing.T) {
	h := newTestRouter(t)
	owner := register(t, h, "Acme Srl")
	other := register(t, h, "Beta Spa")
	a := createAssessment(t, h, owner.AccessToken, model.Level1)

	w := do(t, h, request{method: "GET", path: "/api/assessments/" + a.ID, token: other.AccessToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Assessment non trovato", errorMessage(t, w))

	w = do(t, h, request{method: "GET", path: "/api/assessments/missing", token: owner.AccessToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	h := newTestRouter(t)
	reg := register(t, h, "Acme Srl")
	a := createAssessment(t, h, reg.AccessToken, model.Level1)
	w := do(t, h, request{method: "POST", path: "/api/assessments/" + a.ID + "/submit", token: reg.AccessToken,
		body: model.SubmitRequest{Answers: level1Answers(t, 3)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	header := map[string]string{"X-Admin-Key": adminKey}

	w = do(t, h, request{method: "GET", path: "/api/admin/organizations", headers: header})
	require.Equal(t, http.StatusOK, w.Code)
	var orgs model.OrganizationList
	decode(t, w, &orgs)
	assert.Equal(t, 1, orgs.Total)

	w = do(t, h, request{method: "GET", path: "/api/admin/stats?admin_key=" + adminKey})
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.Stats
	decode(t, w, &stats)
	assert.EqualValues(t, 1, stats.TotalOrganizations)
	assert.EqualValues(t, 1, stats.CompletedAssessments)

	w = do(t, h, request{method: "GET", path: "/api/admin/assessments/" + a.ID, headers: header})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, request{method: "GET", path: "/api/admin/assessments/" + a.ID + "/responses", headers: header})
	require.Equal(t, http.StatusOK, w.Code)
	var responses model.ResponsesReport
	decode(t, w, &responses)
	assert.Equal(t, len(level1Answers(t, 3)), responses.TotalQuestions)

	w = do(t, h, request{method: "POST", path: "/api/admin/assessments/" + a.ID + "/regenerate", headers: header})
	require.Equal(t, http.StatusOK, w.Code)
	var regen model.RegenerateResponse
	decode(t, w, &regen)
	assert.True(t, regen.Success)

	w = do(t, h, request{method: "POST", path: "/api/admin/reset-password", headers: header,
		body: model.ResetPasswordRequest{OrganizationID: reg.Organization.ID, NewPassword: "newsecret1"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, request{method: "POST", path: "/api/auth/login", body: model.LoginRequest{AccessCode: reg.AccessCode, Password: "newsecret1"}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, request{method: "DELETE", path: "/api/admin/assessments/" + a.ID, headers: header})
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, request{method: "DELETE", path: "/api/admin/assessments/" + a.ID, headers: header})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, request{method: "DELETE", path: "/api/admin/organizations/" + reg.Organization.ID, headers: header})
	require.Equal(t, http.StatusOK, w.Code)
	var action model.ActionResponse
	decode(t, w, &action)
	assert.Contains(t, action.Message, "Acme Srl")

	w = do(t, h, request{method: "GET", path: "/api/auth/me", token: reg.AccessToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
