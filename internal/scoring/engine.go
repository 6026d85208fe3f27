// Package scoring turns answer sets into category scores, an overall
// maturity level and a gap analysis. Everything here is pure: the same
// catalog and answers always produce the same result.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"digitalmaturity/internal/model"
)

var (
	ErrInvalidAnswerIndex = errors.New("selected option out of range")
	ErrUnknownQuestionID  = errors.New("answer references an unknown question")
	ErrDuplicateAnswer    = errors.New("question answered more than once")
	ErrInvalidAnswerValue = errors.New("answer value does not match the question")
)

// IsIntegrityError reports whether err is one of the answer integrity failures
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrInvalidAnswerIndex) ||
		errors.Is(err, ErrUnknownQuestionID) ||
		errors.Is(err, ErrDuplicateAnswer) ||
		errors.Is(err, ErrInvalidAnswerValue)
}

// CategoryScore is one row of the result, in catalog order
type CategoryScore struct {
	Name     string
	Score    float64
	Weight   float64 // sum of weights of answered questions
	Answered int
	Gap      model.GapItem
}

// Result is the engine output
type Result struct {
	Categories    []CategoryScore
	Scores        map[string]float64
	MaturityLevel float64 // full precision
	MaturityLabel string
	GapAnalysis   map[string]model.GapItem
}

// DisplayMaturity is the maturity level rounded to one decimal
func (r *Result) DisplayMaturity() float64 {
	return Round1(r.MaturityLevel)
}

// CategoryNames lists scored categories in catalog order
func (r *Result) CategoryNames() []string {
	out := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = c.Name
	}
	return out
}

// Engine computes results with a fixed configuration
type Engine struct {
	cfg Config
}

// NewEngine creates an engine
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

type scored struct {
	category string
	score    float64
	weight   float64
}

// Score evaluates a level-1 answer set. Unanswered questions are left out of
// their category average; a category with no answers is omitted.
func (e *Engine) Score(catalog []model.Question, answers []model.Answer) (*Result, error) {
	resolved, err := resolveLevel1(catalog, answers)
	if err != nil {
		return nil, err
	}
	items := make([]scored, 0, len(resolved))
	for _, q := range catalog {
		if s, ok := resolved[q.ID]; ok {
			items = append(items, scored{category: q.Category, score: s, weight: q.EffectiveWeight()})
		}
	}
	return e.aggregate(items), nil
}

// ValidateLevel1 checks answer integrity without scoring
func ValidateLevel1(catalog []model.Question, answers []model.Answer) error {
	_, err := resolveLevel1(catalog, answers)
	return err
}

func resolveLevel1(catalog []model.Question, answers []model.Answer) (map[int]float64, error) {
	byID := make(map[int]model.Question, len(catalog))
	for _, q := range catalog {
		byID[q.ID] = q
	}
	resolved := make(map[int]float64, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, ErrUnknownQuestionID)
		}
		if _, dup := resolved[a.QuestionID]; dup {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, ErrDuplicateAnswer)
		}
		if a.SelectedOption < 0 || a.SelectedOption >= len(q.Options) {
			return nil, fmt.Errorf("question %d option %d of %d: %w", a.QuestionID, a.SelectedOption, len(q.Options), ErrInvalidAnswerIndex)
		}
		resolved[a.QuestionID] = clamp(q.Options[a.SelectedOption].Score)
	}
	return resolved, nil
}

// ScoreLevel2 evaluates a level-2 answer set. Selects score the chosen
// option, multiselects the mean of their scored choices. Text answers,
// unscored options and answers to inactive conditional questions do not count.
func (e *Engine) ScoreLevel2(catalog []model.Level2Question, answers []model.Answer) (*Result, error) {
	byAnswer, err := resolveLevel2(catalog, answers)
	if err != nil {
		return nil, err
	}
	valuesOf := func(id int) []string {
		if a, ok := byAnswer[id]; ok {
			return a.Value.List()
		}
		return nil
	}

	var items []scored
	for _, q := range catalog {
		a, ok := byAnswer[q.ID]
		if !ok || a.Value.Empty() || !q.Visible(valuesOf) {
			continue
		}
		var sum float64
		var n int
		for _, v := range a.Value.List() {
			opt, _ := q.Option(v)
			if opt.Score != nil {
				sum += clamp(*opt.Score)
				n++
			}
		}
		if n == 0 {
			continue
		}
		items = append(items, scored{category: q.Category, score: sum / float64(n), weight: 1})
	}
	return e.aggregate(items), nil
}

// ValidateLevel2 checks answer integrity without scoring
func ValidateLevel2(catalog []model.Level2Question, answers []model.Answer) error {
	_, err := resolveLevel2(catalog, answers)
	return err
}

func resolveLevel2(catalog []model.Level2Question, answers []model.Answer) (map[int]model.Answer, error) {
	byID := make(map[int]model.Level2Question, len(catalog))
	for _, q := range catalog {
		byID[q.ID] = q
	}
	out := make(map[int]model.Answer, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, ErrUnknownQuestionID)
		}
		if _, dup := out[a.QuestionID]; dup {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, ErrDuplicateAnswer)
		}
		if err := checkLevel2Value(q, a.Value); err != nil {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, err)
		}
		out[a.QuestionID] = a
	}
	return out, nil
}

func checkLevel2Value(q model.Level2Question, v *model.AnswerValue) error {
	if v.Empty() {
		return nil
	}
	switch q.Type {
	case model.Level2Text:
		if v.Multi {
			return fmt.Errorf("text question got a list: %w", ErrInvalidAnswerValue)
		}
	case model.Level2Select:
		if v.Multi {
			return fmt.Errorf("select question got a list: %w", ErrInvalidAnswerValue)
		}
		if _, ok := q.Option(v.Text); !ok {
			return fmt.Errorf("unknown option %q: %w", v.Text, ErrInvalidAnswerValue)
		}
	case model.Level2Multiselect:
		if !v.Multi {
			return fmt.Errorf("multiselect question got a single value: %w", ErrInvalidAnswerValue)
		}
		seen := make(map[string]bool, len(v.Values))
		for _, s := range v.Values {
			if _, ok := q.Option(s); !ok {
				return fmt.Errorf("unknown option %q: %w", s, ErrInvalidAnswerValue)
			}
			if seen[s] {
				return fmt.Errorf("option %q selected twice: %w", s, ErrInvalidAnswerValue)
			}
			seen[s] = true
		}
	}
	return nil
}

func (e *Engine) aggregate(items []scored) *Result {
	type acc struct {
		sum, weight float64
		n           int
	}
	var order []string
	accs := make(map[string]*acc)
	for _, it := range items {
		a, ok := accs[it.category]
		if !ok {
			a = &acc{}
			accs[it.category] = a
			order = append(order, it.category)
		}
		a.sum += it.score
		a.weight += it.weight
		a.n++
	}

	res := &Result{
		Categories:  make([]CategoryScore, 0, len(order)),
		Scores:      make(map[string]float64, len(order)),
		GapAnalysis: make(map[string]model.GapItem, len(order)),
	}
	var weighted, totalWeight float64
	for _, name := range order {
		a := accs[name]
		score := clamp(a.sum / float64(a.n))
		gap := e.cfg.TargetScore - score
		item := model.GapItem{
			CurrentScore: score,
			TargetScore:  e.cfg.TargetScore,
			Gap:          gap,
			Priority:     e.cfg.Classify(gap),
		}
		res.Categories = append(res.Categories, CategoryScore{
			Name:     name,
			Score:    score,
			Weight:   a.weight,
			Answered: a.n,
			Gap:      item,
		})
		res.Scores[name] = score
		res.GapAnalysis[name] = item
		weighted += score * a.weight
		totalWeight += a.weight
	}
	if totalWeight > 0 {
		res.MaturityLevel = clamp(weighted / totalWeight)
	}
	res.MaturityLabel = MaturityLabel(res.MaturityLevel)
	return res
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// Round1 rounds half away from zero to one decimal
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
