package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"digitalmaturity/internal/cache"
	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/event"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository"
)

// AdminService backs the administrative dashboard
type AdminService struct {
	orgRepo        repository.OrganizationRepo
	assessmentRepo repository.AssessmentRepo
	assessments    *AssessmentService
	questions      *QuestionService
	statsCache     cache.StatsCache
	notify         notifier
	log            *logger.Logger
}

// NewAdminService creates a new admin service. statsCache and publisher may be nil.
func NewAdminService(
	orgRepo repository.OrganizationRepo,
	assessmentRepo repository.AssessmentRepo,
	assessments *AssessmentService,
	questions *QuestionService,
	statsCache cache.StatsCache,
	publisher event.Publisher,
	log *logger.Logger,
) *AdminService {
	if log == nil {
		log = logger.Nop()
	}
	return &AdminService{
		orgRepo:        orgRepo,
		assessmentRepo: assessmentRepo,
		assessments:    assessments,
		questions:      questions,
		statsCache:     statsCache,
		notify:         notifier{publisher: publisher, log: log},
		log:            log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *AdminService) SetBroadcaster(b Broadcaster) {
	s.notify.broadcaster = b
}

// ListOrganizations returns every organization, newest first, with its assessments
func (s *AdminService) ListOrganizations(ctx context.Context) (*model.OrganizationList, error) {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	out := &model.OrganizationList{Organizations: make([]model.OrganizationOverview, 0, len(orgs))}
	for _, org := range orgs {
		list, err := s.assessmentRepo.ListByOrganization(ctx, org.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list assessments: %w", err)
		}
		summaries := make([]model.AssessmentSummary, 0, len(list))
		for _, a := range list {
			summaries = append(summaries, a.Summary())
		}
		out.Organizations = append(out.Organizations, model.OrganizationOverview{
			Organization:     *org,
			AssessmentsCount: len(summaries),
			Assessments:      summaries,
		})
	}
	out.Total = len(out.Organizations)
	return out, nil
}

// AssessmentDetail returns any assessment with its organization
func (s *AdminService) AssessmentDetail(ctx context.Context, id string) (*model.AssessmentDetail, error) {
	a, err := s.assessment(ctx, id)
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.GetByID(ctx, a.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &model.AssessmentDetail{Assessment: a, Organization: org}, nil
}

// Stats aggregates dashboard counters, served from cache when fresh
func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	if s.statsCache != nil {
		cached, err := s.statsCache.GetStats(ctx)
		if err != nil {
			s.log.Warn("stats cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.assessmentRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate assessments: %w", err)
	}
	if stats.TotalOrganizations, err = s.orgRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	stats.AverageMaturityLevel = math.Round(stats.AverageMaturityLevel*100) / 100

	if s.statsCache != nil {
		if err := s.statsCache.SetStats(ctx, stats); err != nil {
			s.log.Warn("stats cache write failed", "error", err)
		}
	}
	return stats, nil
}

// ResetPassword sets a new password for an organization
func (s *AdminService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) (*model.ResetPasswordResponse, error) {
	if strings.TrimSpace(req.OrganizationID) == "" {
		return nil, validationError("organization_id is required")
	}
	if req.NewPassword == "" {
		return nil, validationError("new_password is required")
	}
	org, err := s.organization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.orgRepo.UpdatePassword(ctx, org.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	s.log.Info("organization password reset", "organization_id", org.ID)
	return &model.ResetPasswordResponse{
		Success:        true,
		Message:        fmt.Sprintf("Password resettata per %s", org.Name),
		OrganizationID: org.ID,
		AccessCode:     org.AccessCode,
	}, nil
}

// DeleteAssessment removes one assessment
func (s *AdminService) DeleteAssessment(ctx context.Context, id string) (*model.ActionResponse, error) {
	a, err := s.assessment(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.assessmentRepo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete assessment: %w", err)
	}
	if !deleted {
		return nil, ErrAssessmentNotFound
	}
	s.invalidateStats(ctx)

	payload := event.AssessmentPayload{AssessmentID: id, OrganizationID: a.OrganizationID, Level: a.Level}
	s.notify.publish(ctx, event.AssessmentDeleted, payload)
	s.notify.toAdmins(MsgAssessmentDeleted, payload)
	s.notify.toOrganization(a.OrganizationID, MsgAssessmentDeleted, payload)
	return &model.ActionResponse{Success: true, Message: fmt.Sprintf("Assessment #%s eliminato", id)}, nil
}

// DeleteOrganization removes an organization and all its assessments
func (s *AdminService) DeleteOrganization(ctx context.Context, id string) (*model.ActionResponse, error) {
	org, err := s.organization(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.assessmentRepo.DeleteByOrganization(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete assessments: %w", err)
	}
	if _, err := s.orgRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete organization: %w", err)
	}
	s.invalidateStats(ctx)
	s.log.Info("organization deleted", "organization_id", id, "assessments", n)

	payload := event.OrganizationPayload{OrganizationID: id, Name: org.Name, Type: string(org.Type)}
	s.notify.publish(ctx, event.OrganizationDeleted, payload)
	s.notify.toAdmins(MsgOrganizationDeleted, payload)
	return &model.ActionResponse{
		Success: true,
		Message: fmt.Sprintf("Organizzazione '%s' e tutti i suoi assessment eliminati", org.Name),
	}, nil
}

// Regenerate recomputes scores and report from the stored answers. Running
// it twice yields the same stored result.
func (s *AdminService) Regenerate(ctx context.Context, id string) (*model.RegenerateResponse, error) {
	a, err := s.assessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsCompleted() {
		return nil, ErrNotRegenerable
	}
	org, err := s.organization(ctx, a.OrganizationID)
	if err != nil {
		return nil, err
	}

	result, err := s.assessments.evaluate(ctx, org, a.Level, a.Responses.Answers, false)
	if err != nil {
		return nil, err
	}
	if err := s.assessmentRepo.UpdateResults(ctx, id, result); err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}
	s.invalidateStats(ctx)

	level := result.MaturityLevel
	payload := event.AssessmentPayload{
		AssessmentID:   id,
		OrganizationID: a.OrganizationID,
		Level:          a.Level,
		MaturityLevel:  &level,
		MaturityLabel:  result.MaturityLabel,
	}
	s.notify.publish(ctx, event.AssessmentRegenerated, payload)
	s.notify.toAdmins(MsgAssessmentRegenerated, payload)
	s.notify.toOrganization(a.OrganizationID, MsgAssessmentRegenerated, payload)

	return &model.RegenerateResponse{
		Success:       true,
		Message:       fmt.Sprintf("Report rigenerato per assessment #%s", id),
		MaturityLevel: &level,
		MaturityLabel: result.MaturityLabel,
	}, nil
}

// Responses resolves stored answers against the question catalog
func (s *AdminService) Responses(ctx context.Context, id string) (*model.ResponsesReport, error) {
	a, err := s.assessment(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &model.ResponsesReport{
		AssessmentID:  a.ID,
		Organization:  model.OrganizationInfo{Name: "N/A"},
		Status:        a.Status,
		MaturityLevel: a.MaturityLevel,
		CompletedAt:   a.CompletedAt,
		Responses:     []model.DetailedResponse{},
	}
	org, err := s.orgRepo.GetByID(ctx, a.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org != nil {
		out.Organization = org.Info()
	}

	if a.Level == model.Level2 {
		out.Responses, err = level2Responses(a.Responses.Answers)
	} else {
		out.Responses, err = s.level1Responses(ctx, a.Responses.Answers)
	}
	if err != nil {
		return nil, err
	}
	out.TotalQuestions = len(out.Responses)
	return out, nil
}

func (s *AdminService) level1Responses(ctx context.Context, answers []model.Answer) ([]model.DetailedResponse, error) {
	all, err := s.questions.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if len(all) == 0 {
		if all, err = catalog.Level1(); err != nil {
			return nil, err
		}
	}
	byID := make(map[int]model.Question, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}

	out := make([]model.DetailedResponse, 0, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		idx := ans.SelectedOption
		d := model.DetailedResponse{
			QuestionID:          q.ID,
			Category:            q.Category,
			Subcategory:         q.Subcategory,
			QuestionText:        q.Text,
			SelectedOptionIndex: &idx,
			Notes:               ans.Notes,
			AllOptions:          q.Options,
		}
		score := 0.0
		if idx >= 0 && idx < len(q.Options) {
			d.SelectedOptionText = q.Options[idx].Text
			score = q.Options[idx].Score
		}
		d.SelectedScore = &score
		out = append(out, d)
	}
	return out, nil
}

func level2Responses(answers []model.Answer) ([]model.DetailedResponse, error) {
	questions, err := catalog.Level2()
	if err != nil {
		return nil, err
	}
	byID := make(map[int]model.Level2Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]model.DetailedResponse, 0, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		d := model.DetailedResponse{
			QuestionID:   q.ID,
			Category:     q.Category,
			Subcategory:  q.Subcategory,
			QuestionText: q.Text,
			Value:        ans.Value,
			Notes:        ans.Notes,
		}
		var texts []string
		var sum float64
		var n int
		for _, v := range ans.Value.List() {
			opt, ok := q.Option(v)
			if !ok {
				// free text
				texts = append(texts, v)
				continue
			}
			texts = append(texts, opt.Text)
			if opt.Score != nil {
				sum += *opt.Score
				n++
			}
		}
		d.SelectedOptionText = strings.Join(texts, ", ")
		if n > 0 {
			score := sum / float64(n)
			d.SelectedScore = &score
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *AdminService) assessment(ctx context.Context, id string) (*model.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if a == nil {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

func (s *AdminService) organization(ctx context.Context, id string) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}
