// Package repotest provides in-memory repositories with the same
// semantics as the MongoDB ones, for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repository.OrganizationRepo = (*OrganizationRepo)(nil)
	_ repository.AssessmentRepo   = (*AssessmentRepo)(nil)
	_ repository.QuestionRepo     = (*QuestionRepo)(nil)
)

// OrganizationRepo is an in-memory repository.OrganizationRepo
type OrganizationRepo struct {
	mu   sync.Mutex
	orgs map[string]*model.Organization
	// ForceCodes are handed out in order by Create, overriding the caller's code
	ForceCodes []string
}

// NewOrganizationRepo creates an empty organization repository
func NewOrganizationRepo() *OrganizationRepo {
	return &OrganizationRepo{orgs: map[string]*model.Organization{}}
}

func (r *OrganizationRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *OrganizationRepo) Create(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ForceCodes) > 0 {
		org.AccessCode = r.ForceCodes[0]
		r.ForceCodes = r.ForceCodes[1:]
	}
	for _, o := range r.orgs {
		if o.AccessCode == org.AccessCode {
			return repository.ErrDuplicateAccessCode
		}
	}
	if org.ID == "" {
		org.ID = primitive.NewObjectID().Hex()
	}
	org.CreatedAt = time.Now().UTC()
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orgs[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (r *OrganizationRepo) GetByAccessCode(ctx context.Context, code string) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.AccessCode == code {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *OrganizationRepo) List(ctx context.Context) ([]*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Organization
	for _, o := range r.orgs {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrganizationRepo) UpdateProfile(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[org.ID]
	if !ok {
		return nil
	}
	o.Sector, o.Size, o.FiscalCode, o.Phone, o.AdminName = org.Sector, org.Size, org.FiscalCode, org.Phone, org.AdminName
	return nil
}

func (r *OrganizationRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orgs[id]; ok {
		o.HashedPassword = hash
	}
	return nil
}

func (r *OrganizationRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.orgs[id]
	delete(r.orgs, id)
	return ok, nil
}

func (r *OrganizationRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orgs)), nil
}

// AssessmentRepo is an in-memory repository.AssessmentRepo
type AssessmentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Assessment
	seq  int
}

// NewAssessmentRepo creates an empty assessment repository
func NewAssessmentRepo() *AssessmentRepo {
	return &AssessmentRepo{data: map[string]*model.Assessment{}}
}

func cloneAssessment(a *model.Assessment) *model.Assessment {
	cp := *a
	cp.Responses.Answers = append([]model.Answer(nil), a.Responses.Answers...)
	return &cp
}

func (r *AssessmentRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *AssessmentRepo) Create(ctx context.Context, a *model.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = primitive.NewObjectID().Hex()
	}
	r.seq++
	// strictly increasing creation times keep listing order deterministic
	a.CreatedAt = time.Date(2025, 1, 1, 0, 0, r.seq, 0, time.UTC)
	r.data[a.ID] = cloneAssessment(a)
	return nil
}

func (r *AssessmentRepo) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.data[id]; ok {
		return cloneAssessment(a), nil
	}
	return nil, nil
}

func (r *AssessmentRepo) ListByOrganization(ctx context.Context, orgID string) ([]*model.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Assessment
	for _, a := range r.data {
		if a.OrganizationID == orgID {
			out = append(out, cloneAssessment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AssessmentRepo) SaveProgress(ctx context.Context, id string, answers []model.Answer, seq int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok || a.Status != model.StatusInProgress {
		return false, nil
	}
	if seq > 0 {
		if a.ProgressSeq >= seq {
			return false, nil
		}
		a.ProgressSeq = seq
	} else {
		a.ProgressSeq++
	}
	a.Responses.Answers = append([]model.Answer(nil), answers...)
	return true, nil
}

func (r *AssessmentRepo) Complete(ctx context.Context, id string, answers []model.Answer, result *model.AssessmentResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok || a.Status != model.StatusInProgress {
		return false, nil
	}
	now := time.Now().UTC()
	a.Status = model.StatusCompleted
	a.CompletedAt = &now
	a.Responses.Answers = append([]model.Answer(nil), answers...)
	applyResult(a, result)
	return true, nil
}

func (r *AssessmentRepo) UpdateResults(ctx context.Context, id string, result *model.AssessmentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.data[id]; ok {
		applyResult(a, result)
	}
	return nil
}

func applyResult(a *model.Assessment, result *model.AssessmentResult) {
	level := result.MaturityLevel
	md := result.Report
	a.Categories = result.Categories
	a.Scores = result.Scores
	a.MaturityLevel = &level
	a.MaturityLabel = result.MaturityLabel
	a.GapAnalysis = result.GapAnalysis
	a.Report = &md
}

func (r *AssessmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[id]
	delete(r.data, id)
	return ok, nil
}

func (r *AssessmentRepo) DeleteByOrganization(ctx context.Context, orgID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.data {
		if a.OrganizationID == orgID {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

func (r *AssessmentRepo) CountCompleted(ctx context.Context, orgID string, level int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.data {
		if a.OrganizationID == orgID && a.Status == model.StatusCompleted && (a.Level == level || (level == model.Level1 && a.Level == 0)) {
			n++
		}
	}
	return n, nil
}

func (r *AssessmentRepo) Stats(ctx context.Context) (*model.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.Stats{TotalAssessments: int64(len(r.data))}
	var sum float64
	for _, a := range r.data {
		if a.Status == model.StatusCompleted {
			stats.CompletedAssessments++
			if a.MaturityLevel != nil {
				sum += *a.MaturityLevel
			}
		}
	}
	if stats.CompletedAssessments > 0 {
		stats.AverageMaturityLevel = sum / float64(stats.CompletedAssessments)
	}
	stats.InProgressAssessments = stats.TotalAssessments - stats.CompletedAssessments
	return stats, nil
}

// QuestionRepo is an in-memory repository.QuestionRepo
type QuestionRepo struct {
	mu        sync.Mutex
	questions []model.Question
	listCalls int
}

// NewQuestionRepo creates an empty question repository
func NewQuestionRepo() *QuestionRepo {
	return &QuestionRepo{}
}

// ListCalls counts List invocations
func (r *QuestionRepo) ListCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

func (r *QuestionRepo) List(ctx context.Context) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return append([]model.Question(nil), r.questions...), nil
}

func (r *QuestionRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.questions)), nil
}

func (r *QuestionRepo) ReplaceAll(ctx context.Context, qs []model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append([]model.Question(nil), qs...)
	return nil
}
