package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"digitalmaturity/internal/cache"
	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/event"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/report"
	"digitalmaturity/internal/repository"
	"digitalmaturity/internal/scoring"
)

// Export formats
const (
	FormatMarkdown = "md"
	FormatPDF      = "pdf"
	FormatHTML     = "html"
)

// AssessmentService handles the assessment lifecycle of an organization
type AssessmentService struct {
	assessmentRepo repository.AssessmentRepo
	orgRepo        repository.OrganizationRepo
	questions      *QuestionService
	engine         *scoring.Engine
	statsCache     cache.StatsCache
	notify         notifier
	log            *logger.Logger
}

// NewAssessmentService creates a new assessment service. statsCache and
// publisher may be nil.
func NewAssessmentService(
	assessmentRepo repository.AssessmentRepo,
	orgRepo repository.OrganizationRepo,
	questions *QuestionService,
	engine *scoring.Engine,
	statsCache cache.StatsCache,
	publisher event.Publisher,
	log *logger.Logger,
) *AssessmentService {
	if log == nil {
		log = logger.Nop()
	}
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		orgRepo:        orgRepo,
		questions:      questions,
		engine:         engine,
		statsCache:     statsCache,
		notify:         notifier{publisher: publisher, log: log},
		log:            log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *AssessmentService) SetBroadcaster(b Broadcaster) {
	s.notify.broadcaster = b
}

// Create starts a new in-progress assessment. Level 2 requires eligibility.
func (s *AssessmentService) Create(ctx context.Context, orgID string, level int) (*model.Assessment, error) {
	if level == 0 {
		level = model.Level1
	}
	switch level {
	case model.Level1:
	case model.Level2:
		e, err := s.questions.Eligibility(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if !e.Eligible {
			return nil, ErrNotEligible
		}
	default:
		return nil, validationError("unknown level %d", level)
	}

	a := &model.Assessment{
		OrganizationID: orgID,
		Level:          level,
		Status:         model.StatusInProgress,
	}
	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	s.log.Info("assessment created", "assessment_id", a.ID, "organization_id", orgID, "level", level)
	s.invalidateStats(ctx)
	return a, nil
}

// List returns the organization's assessments, newest first
func (s *AssessmentService) List(ctx context.Context, orgID string) ([]model.AssessmentSummary, error) {
	list, err := s.assessmentRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	out := make([]model.AssessmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, a.Summary())
	}
	return out, nil
}

// Get returns an assessment owned by the organization
func (s *AssessmentService) Get(ctx context.Context, orgID, id string) (*model.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	// another organization's assessment is reported as missing
	if a == nil || a.OrganizationID != orgID {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

// SaveProgress stores a partial answer snapshot. Snapshots older than the
// stored one are ignored and reported with Applied false.
func (s *AssessmentService) SaveProgress(ctx context.Context, orgID, id string, req *model.SaveProgressRequest) (*model.SaveProgressResponse, error) {
	a, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	if err := s.validate(ctx, a, req.Answers); err != nil {
		return nil, err
	}

	applied, err := s.assessmentRepo.SaveProgress(ctx, id, req.Answers, req.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	if !applied {
		current, err := s.Get(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		if current.IsCompleted() {
			return nil, ErrAlreadyCompleted
		}
		s.log.Debug("stale progress snapshot ignored", "assessment_id", id, "seq", req.Seq, "stored_seq", current.ProgressSeq)
		return &model.SaveProgressResponse{Applied: false, Seq: current.ProgressSeq}, nil
	}

	seq := req.Seq
	if seq <= 0 {
		seq = a.ProgressSeq + 1
	}
	payload := map[string]interface{}{
		"assessment_id": id,
		"answered":      len(req.Answers),
		"seq":           seq,
	}
	s.notify.toOrganization(orgID, MsgProgressSaved, payload)
	s.notify.toAdmins(MsgProgressSaved, payload)
	return &model.SaveProgressResponse{Applied: true, Seq: seq}, nil
}

// Submit validates and scores the answers, stores the results and report
// and marks the assessment completed.
func (s *AssessmentService) Submit(ctx context.Context, orgID, id string, answers []model.Answer) (*model.Assessment, error) {
	a, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	org, err := s.organization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, org, a.Level, answers, true)
	if err != nil {
		return nil, err
	}

	ok, err := s.assessmentRepo.Complete(ctx, id, answers, result)
	if err != nil {
		return nil, fmt.Errorf("failed to complete assessment: %w", err)
	}
	if !ok {
		// lost a race with a concurrent submission
		return nil, ErrAlreadyCompleted
	}

	completed, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("assessment completed", "assessment_id", id, "organization_id", orgID, "maturity", result.MaturityLevel)

	s.invalidateStats(ctx)
	payload := event.AssessmentPayload{
		AssessmentID:   id,
		OrganizationID: orgID,
		Level:          completed.Level,
		MaturityLevel:  completed.MaturityLevel,
		MaturityLabel:  completed.MaturityLabel,
	}
	s.notify.publish(ctx, event.AssessmentCompleted, payload)
	s.notify.toAdmins(MsgAssessmentCompleted, map[string]interface{}{
		"assessment_id":     id,
		"organization_id":   orgID,
		"organization_name": org.Name,
		"level":             completed.Level,
		"maturity_level":    completed.MaturityLevel,
		"maturity_label":    completed.MaturityLabel,
	})
	s.notify.toOrganization(orgID, MsgAssessmentCompleted, payload)
	return completed, nil
}

// Report returns the stored report of a completed assessment
func (s *AssessmentService) Report(ctx context.Context, orgID, id string) (*model.ReportResponse, error) {
	a, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !a.IsCompleted() {
		return nil, ErrNotCompleted
	}
	out := &model.ReportResponse{
		Scores:        a.Scores,
		MaturityLevel: a.MaturityLevel,
		MaturityLabel: a.MaturityLabel,
		GapAnalysis:   a.GapAnalysis,
	}
	if a.Report != nil {
		out.Report = *a.Report
	}
	return out, nil
}

// Export renders a completed assessment as md, html or pdf
func (s *AssessmentService) Export(ctx context.Context, orgID, id, format string) (*model.ExportFile, error) {
	a, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !a.IsCompleted() {
		return nil, ErrNotCompleted
	}
	org, err := s.organization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.render(org, a, format)
}

func (s *AssessmentService) render(org *model.Organization, a *model.Assessment, format string) (*model.ExportFile, error) {
	in := report.FromAssessment(org.Info(), a)
	base := "report_" + slug(org.Name) + "_" + a.ID

	switch strings.ToLower(format) {
	case "", FormatMarkdown, "markdown":
		body := report.Markdown(in)
		if a.Report != nil && *a.Report != "" {
			body = *a.Report
		}
		return &model.ExportFile{Filename: base + ".md", ContentType: "text/markdown; charset=utf-8", Data: []byte(body)}, nil
	case FormatHTML:
		return &model.ExportFile{Filename: base + ".html", ContentType: "text/html; charset=utf-8", Data: report.HTML(in)}, nil
	case FormatPDF:
		data, err := report.PDF(in)
		if err != nil {
			return nil, err
		}
		return &model.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, validationError("unsupported format %q", format)
	}
}

// validate checks answer integrity against the assessment's catalog
func (s *AssessmentService) validate(ctx context.Context, a *model.Assessment, answers []model.Answer) error {
	if a.Level == model.Level2 {
		questions, err := catalog.Level2()
		if err != nil {
			return err
		}
		return scoring.ValidateLevel2(questions, answers)
	}
	org, err := s.organization(ctx, a.OrganizationID)
	if err != nil {
		return err
	}
	questions, err := s.questions.Level1(ctx, org.Type)
	if err != nil {
		return err
	}
	return scoring.ValidateLevel1(questions, answers)
}

// evaluate scores answers and builds the report. With requireComplete,
// level-2 submissions must answer every visible required question.
func (s *AssessmentService) evaluate(ctx context.Context, org *model.Organization, level int, answers []model.Answer, requireComplete bool) (*model.AssessmentResult, error) {
	var res *scoring.Result
	if level == model.Level2 {
		questions, err := catalog.Level2()
		if err != nil {
			return nil, err
		}
		if res, err = s.engine.ScoreLevel2(questions, answers); err != nil {
			return nil, err
		}
		if requireComplete {
			if missing := missingRequired(questions, answers); len(missing) > 0 {
				return nil, validationError("required questions not answered: %v", missing)
			}
		}
	} else {
		questions, err := s.questions.Level1(ctx, org.Type)
		if err != nil {
			return nil, err
		}
		if res, err = s.engine.Score(questions, answers); err != nil {
			return nil, err
		}
	}

	md := report.Markdown(report.FromResult(org.Info(), level, res))
	return toAssessmentResult(res, md), nil
}

func missingRequired(questions []model.Level2Question, answers []model.Answer) []int {
	values := make(map[int][]string, len(answers))
	for _, a := range answers {
		values[a.QuestionID] = a.Value.List()
	}
	valuesOf := func(id int) []string { return values[id] }

	var missing []int
	for _, q := range questions {
		if q.Required && q.Visible(valuesOf) && len(values[q.ID]) == 0 {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

func toAssessmentResult(res *scoring.Result, md string) *model.AssessmentResult {
	out := &model.AssessmentResult{
		Categories:    res.CategoryNames(),
		Scores:        make(map[string]float64, len(res.Scores)),
		MaturityLevel: res.DisplayMaturity(),
		MaturityLabel: res.MaturityLabel,
		GapAnalysis:   make(map[string]model.GapItem, len(res.GapAnalysis)),
		Report:        md,
	}
	for name, score := range res.Scores {
		out.Scores[name] = round2(score)
	}
	for name, gap := range res.GapAnalysis {
		gap.CurrentScore = round2(gap.CurrentScore)
		gap.Gap = round2(gap.Gap)
		out.GapAnalysis[name] = gap
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *AssessmentService) organization(ctx context.Context, orgID string) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

func (s *AssessmentService) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if s == "" {
		return "organizzazione"
	}
	return s
}
