package service

import (
	"context"
	"errors"
	"fmt"

	"digitalmaturity/internal/cache"
	"digitalmaturity/internal/catalog"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/model"
	"digitalmaturity/internal/repository"
)

// QuestionService serves the level-1 and level-2 questionnaires
type QuestionService struct {
	questionRepo   repository.QuestionRepo
	assessmentRepo repository.AssessmentRepo
	catalogCache   cache.CatalogCache
	log            *logger.Logger
}

// NewQuestionService creates a new question service. catalogCache may be nil.
func NewQuestionService(
	questionRepo repository.QuestionRepo,
	assessmentRepo repository.AssessmentRepo,
	catalogCache cache.CatalogCache,
	log *logger.Logger,
) *QuestionService {
	if log == nil {
		log = logger.Nop()
	}
	return &QuestionService{
		questionRepo:   questionRepo,
		assessmentRepo: assessmentRepo,
		catalogCache:   catalogCache,
		log:            log,
	}
}

// Level1 returns the ordered level-1 questions shown to orgType
func (s *QuestionService) Level1(ctx context.Context, orgType model.OrganizationType) ([]model.Question, error) {
	if s.catalogCache != nil {
		cached, err := s.catalogCache.GetQuestions(ctx, orgType)
		if err != nil {
			s.log.Warn("catalog cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	all, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if len(all) == 0 {
		// unseeded database
		if all, err = catalog.Level1(); err != nil {
			return nil, err
		}
	}
	catalog.SortQuestions(all)
	questions := catalog.ForOrganization(all, orgType)

	if s.catalogCache != nil {
		if err := s.catalogCache.SetQuestions(ctx, orgType, questions); err != nil {
			s.log.Warn("catalog cache write failed", "error", err)
		}
	}
	return questions, nil
}

// Categories lists the level-1 categories in catalog order
func (s *QuestionService) Categories(ctx context.Context, orgType model.OrganizationType) ([]string, error) {
	questions, err := s.Level1(ctx, orgType)
	if err != nil {
		return nil, err
	}
	return catalog.Categories(questions), nil
}

// Eligibility reports whether the organization may take the level-2 audit
func (s *QuestionService) Eligibility(ctx context.Context, orgID string) (*model.Eligibility, error) {
	n, err := s.assessmentRepo.CountCompleted(ctx, orgID, model.Level1)
	if err != nil {
		return nil, fmt.Errorf("failed to count assessments: %w", err)
	}
	e := &model.Eligibility{
		Eligible:             n > 0,
		CompletedLevel1Count: int(n),
		Message:              "Completa prima un assessment di livello 1",
	}
	if e.Eligible {
		e.Message = "Puoi accedere all'assessment di livello 2"
	}
	return e, nil
}

// Level2 returns the level-2 questionnaire, or ErrNotEligible
func (s *QuestionService) Level2(ctx context.Context, orgID string) (*model.Level2Catalog, error) {
	e, err := s.Eligibility(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !e.Eligible {
		return nil, ErrNotEligible
	}
	questions, err := catalog.Level2()
	if err != nil {
		return nil, err
	}
	return &model.Level2Catalog{
		Questions:  questions,
		Categories: catalog.Level2Categories(questions),
		Total:      len(questions),
	}, nil
}

// Thematic returns a standalone questionnaire (governance, ISO 56002).
// These are served as is, without filtering by organization type.
func (s *QuestionService) Thematic(ctx context.Context, name string) (*model.ThematicCatalog, error) {
	cat, err := catalog.Thematic(name)
	if errors.Is(err, catalog.ErrUnknownCatalog) {
		return nil, ErrCatalogNotFound
	}
	return cat, err
}

// ThematicCategories lists the categories of a standalone questionnaire
func (s *QuestionService) ThematicCategories(ctx context.Context, name string) ([]string, error) {
	cat, err := s.Thematic(ctx, name)
	if err != nil {
		return nil, err
	}
	return cat.Categories, nil
}

// Seed replaces the stored level-1 catalog with the embedded one
func (s *QuestionService) Seed(ctx context.Context) (int, error) {
	questions, err := catalog.Level1()
	if err != nil {
		return 0, err
	}
	if err := s.questionRepo.ReplaceAll(ctx, questions); err != nil {
		return 0, fmt.Errorf("failed to seed questions: %w", err)
	}
	if s.catalogCache != nil {
		if err := s.catalogCache.Invalidate(ctx); err != nil {
			s.log.Warn("catalog cache invalidation failed", "error", err)
		}
	}
	s.log.Info("level-1 catalog seeded", "questions", len(questions))
	return len(questions), nil
}

// SeedIfEmpty seeds only an empty catalog
func (s *QuestionService) SeedIfEmpty(ctx context.Context) (bool, error) {
	n, err := s.questionRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count questions: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Seed(ctx); err != nil {
		return false, err
	}
	return true, nil
}
