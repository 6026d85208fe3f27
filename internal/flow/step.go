package flow

import (
	"digitalmaturity/internal/model"
)

// Kind is the input kind of a step
type Kind int

const (
	KindChoice      Kind = iota // level-1 single choice by option index
	KindText                    // level-2 free text
	KindSelect                  // level-2 single value
	KindMultiselect             // level-2 list of values
)

func (k Kind) String() string {
	switch k {
	case KindChoice:
		return "choice"
	case KindText:
		return "text"
	case KindSelect:
		return "select"
	case KindMultiselect:
		return "multiselect"
	default:
		return "unknown"
	}
}

// Step is one question of the sequence regardless of level
type Step struct {
	QuestionID  int
	Category    string
	Text        string
	Kind        Kind
	Required    bool
	OptionCount int      // choice steps
	Values      []string // select and multiselect steps
	Conditional *model.Conditional

	Question *model.Question       // set for level 1
	Level2   *model.Level2Question // set for level 2
}

func (s Step) allows(value string) bool {
	for _, v := range s.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Questionnaire is an ordered, indexed list of steps
type Questionnaire struct {
	Level int
	Steps []Step
	byID  map[int]int
}

// NewLevel1 builds a questionnaire from level-1 questions. Every level-1
// question must be answered.
func NewLevel1(questions []model.Question) *Questionnaire {
	steps := make([]Step, len(questions))
	for i := range questions {
		q := questions[i]
		steps[i] = Step{
			QuestionID:  q.ID,
			Category:    q.Category,
			Text:        q.Text,
			Kind:        KindChoice,
			Required:    true,
			OptionCount: len(q.Options),
			Question:    &q,
		}
	}
	return newQuestionnaire(model.Level1, steps)
}

// NewLevel2 builds a questionnaire from level-2 questions
func NewLevel2(questions []model.Level2Question) *Questionnaire {
	steps := make([]Step, len(questions))
	for i := range questions {
		q := questions[i]
		values := make([]string, len(q.Options))
		for j, opt := range q.Options {
			values[j] = opt.Value
		}
		kind := KindText
		switch q.Type {
		case model.Level2Select:
			kind = KindSelect
		case model.Level2Multiselect:
			kind = KindMultiselect
		}
		steps[i] = Step{
			QuestionID:  q.ID,
			Category:    q.Category,
			Text:        q.Text,
			Kind:        kind,
			Required:    q.Required,
			Values:      values,
			Conditional: q.Conditional,
			Level2:      &q,
		}
	}
	return newQuestionnaire(model.Level2, steps)
}

func newQuestionnaire(level int, steps []Step) *Questionnaire {
	byID := make(map[int]int, len(steps))
	for i, s := range steps {
		byID[s.QuestionID] = i
	}
	return &Questionnaire{Level: level, Steps: steps, byID: byID}
}

// Step looks up a step by question id
func (q *Questionnaire) Step(questionID int) (Step, bool) {
	i, ok := q.byID[questionID]
	if !ok {
		return Step{}, false
	}
	return q.Steps[i], true
}

// Len is the number of steps
func (q *Questionnaire) Len() int {
	return len(q.Steps)
}

// Visible reports whether a step is active for the given answers. Only the
// direct parent's answer is consulted: a chained question stays active while
// its hidden parent still holds a matching answer.
func (q *Questionnaire) Visible(s Step, answers AnswerSet) bool {
	if s.Conditional == nil {
		return true
	}
	for _, v := range answers.ValuesOf(s.Conditional.QuestionID) {
		if v == s.Conditional.Value {
			return true
		}
	}
	return false
}

// VisibleAt is Visible by position
func (q *Questionnaire) VisibleAt(i int, answers AnswerSet) bool {
	if i < 0 || i >= len(q.Steps) {
		return false
	}
	return q.Visible(q.Steps[i], answers)
}

// IsComplete reports whether every visible required step has a non-empty answer
func (q *Questionnaire) IsComplete(answers AnswerSet) bool {
	for _, s := range q.Steps {
		if !s.Required || !q.Visible(s, answers) {
			continue
		}
		if !answers.Answered(s.QuestionID) {
			return false
		}
	}
	return true
}
