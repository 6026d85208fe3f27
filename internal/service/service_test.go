package service

import (
	"context"
	"testing"
	"time"

	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository/repotest"
	"digitalmaturity/internal/scoring"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	orgs        *repotest.OrganizationRepo
	assessments *repotest.AssessmentRepo
	questions   *repotest.QuestionRepo
	catalog     *memCatalogCache
	stats       *memStatsCache
	publisher   *recordingPublisher
	hub         *recordingBroadcaster

	auth       *AuthService
	questionSv *QuestionService
	assessSv   *AssessmentService
	admin      *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		orgs:        repotest.NewOrganizationRepo(),
		assessments: repotest.NewAssessmentRepo(),
		questions:   repotest.NewQuestionRepo(),
		catalog:     newMemCatalogCache(),
		stats:       &memStatsCache{},
		publisher:   &recordingPublisher{},
		hub:         &recordingBroadcaster{},
	}
	e.auth = NewAuthService(e.orgs, e.publisher, AuthConfig{
		JWTSecret:   "test-secret",
		AdminSecret: "admin-key",
		TokenTTL:    time.Hour,
	}, nil)
	e.questionSv = NewQuestionService(e.questions, e.assessments, e.catalog, nil)
	_, err := e.questionSv.Seed(context.Background())
	require.NoError(t, err)

	engine := scoring.NewEngine(scoring.DefaultConfig())
	e.assessSv = NewAssessmentService(e.assessments, e.orgs, e.questionSv, engine, e.stats, e.publisher, nil)
	e.assessSv.SetBroadcaster(e.hub)
	e.admin = NewAdminService(e.orgs, e.assessments, e.assessSv, e.questionSv, e.stats, e.publisher, nil)
	e.admin.SetBroadcaster(e.hub)
	return e
}

func (e *testEnv) register(t *testing.T, name string, orgType model.OrganizationType) *model.TokenResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), &model.RegisterRequest{
		Name:     name,
		Type:     orgType,
		Email:    "info@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return resp
}

// level1Answers answers every question shown to orgType with the given option index
func level1Answers(t *testing.T, orgType model.OrganizationType, option int) []model.Answer {
	t.Helper()
	all, err := catalog.Level1()
	require.NoError(t, err)
	var out []model.Answer
	for _, q := range catalog.ForOrganization(all, orgType) {
		out = append(out, model.Answer{QuestionID: q.ID, SelectedOption: option})
	}
	return out
}

// level2Answers answers every level-2 question with its first option, or
// free text for text questions
func level2Answers(t *testing.T) []model.Answer {
	t.Helper()
	qs, err := catalog.Level2()
	require.NoError(t, err)
	var out []model.Answer
	for _, q := range qs {
		a := model.Answer{QuestionID: q.ID}
		switch q.Type {
		case model.Level2Text:
			a.Value = model.TextValue("risposta")
		case model.Level2Select:
			a.Value = model.TextValue(q.Options[0].Value)
		case model.Level2Multiselect:
			a.Value = model.ListValue(q.Options[0].Value)
		}
		out = append(out, a)
	}
	return out
}

// completeLevel1 creates and submits a level-1 assessment
func (e *testEnv) completeLevel1(t *testing.T, org *model.Organization, option int) *model.Assessment {
	t.Helper()
	ctx := context.Background()
	a, err := e.assessSv.Create(ctx, org.ID, model.Level1)
	require.NoError(t, err)
	done, err := e.assessSv.Submit(ctx, org.ID, a.ID, level1Answers(t, org.Type, option))
	require.NoError(t, err)
	return done
}
