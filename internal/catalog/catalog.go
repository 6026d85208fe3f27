// Package catalog loads the built-in questionnaires.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"digitalmaturity/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed level1.yaml
var level1YAML []byte

//go:embed level2.yaml
var level2YAML []byte

type level1File struct {
	Questions []model.Question `yaml:"questions"`
}

type level2File struct {
	Questions []model.Level2Question `yaml:"questions"`
}

var (
	level1Once sync.Once
	level1     []model.Question
	level1Err  error

	level2Once sync.Once
	level2     []model.Level2Question
	level2Err  error
)

// Level1 returns the level-1 questionnaire sorted by order. Callers get a copy.
func Level1() ([]model.Question, error) {
	level1Once.Do(func() {
		level1, level1Err = ParseLevel1(level1YAML)
	})
	if level1Err != nil {
		return nil, level1Err
	}
	out := make([]model.Question, len(level1))
	copy(out, level1)
	return out, nil
}

// Level2 returns the level-2 audit questionnaire in declaration order
func Level2() ([]model.Level2Question, error) {
	level2Once.Do(func() {
		level2, level2Err = ParseLevel2(level2YAML)
	})
	if level2Err != nil {
		return nil, level2Err
	}
	out := make([]model.Level2Question, len(level2))
	copy(out, level2)
	return out, nil
}

// ParseLevel1 decodes and validates a level-1 questionnaire document
func ParseLevel1(data []byte) ([]model.Question, error) {
	var f level1File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode level 1 catalog: %w", err)
	}
	if err := validateScored("level 1", f.Questions); err != nil {
		return nil, err
	}
	SortQuestions(f.Questions)
	return f.Questions, nil
}

// validateScored checks questions answered by picking one scored option
func validateScored(kind string, qs []model.Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%s catalog is empty", kind)
	}
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if seen[q.ID] {
			return fmt.Errorf("%s catalog: duplicate question id %d", kind, q.ID)
		}
		seen[q.ID] = true
		if q.Category == "" {
			return fmt.Errorf("%s catalog: question %d has no category", kind, q.ID)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%s catalog: question %d has no options", kind, q.ID)
		}
		for _, opt := range q.Options {
			if opt.Score < 0 || opt.Score > 5 {
				return fmt.Errorf("%s catalog: question %d option score %v outside 0-5", kind, q.ID, opt.Score)
			}
		}
	}
	return nil
}

// ParseLevel2 decodes and validates a level-2 questionnaire document
func ParseLevel2(data []byte) ([]model.Level2Question, error) {
	var f level2File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode level 2 catalog: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("level 2 catalog is empty")
	}
	byID := make(map[int]model.Level2Question, len(f.Questions))
	for _, q := range f.Questions {
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("level 2 catalog: duplicate question id %d", q.ID)
		}
		switch q.Type {
		case model.Level2Text:
		case model.Level2Select, model.Level2Multiselect:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("level 2 catalog: question %d (%s) has no options", q.ID, q.Type)
			}
		default:
			return nil, fmt.Errorf("level 2 catalog: question %d has unknown type %q", q.ID, q.Type)
		}
		if c := q.Conditional; c != nil {
			ref, ok := byID[c.QuestionID]
			if !ok {
				return nil, fmt.Errorf("level 2 catalog: question %d depends on %d which is not declared before it", q.ID, c.QuestionID)
			}
			if _, ok := ref.Option(c.Value); !ok {
				return nil, fmt.Errorf("level 2 catalog: question %d depends on unknown value %q of question %d", q.ID, c.Value, c.QuestionID)
			}
		}
		byID[q.ID] = q
	}
	return f.Questions, nil
}

// SortQuestions orders level-1 questions by order, then id
func SortQuestions(qs []model.Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
}

// Categories lists level-1 categories in first-appearance order
func Categories(qs []model.Question) []string {
	var out []string
	seen := map[string]bool{}
	for _, q := range qs {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out
}

// Level2Categories lists level-2 categories in first-appearance order
func Level2Categories(qs []model.Level2Question) []string {
	var out []string
	seen := map[string]bool{}
	for _, q := range qs {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out
}

// ForOrganization filters level-1 questions by target type
func ForOrganization(qs []model.Question, orgType model.OrganizationType) []model.Question {
	out := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		if q.TargetType.Applies(orgType) {
			out = append(out, q)
		}
	}
	return out
}
