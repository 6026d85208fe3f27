package flow

import (
	"fmt"

	"digitalmaturity/internal/model"
)

// Event is an answer change
type Event interface {
	Question() int
}

// SelectOption picks option Index of a choice step
type SelectOption struct {
	QuestionID int
	Index      int
}

// SetText replaces a text answer; empty text clears it
type SetText struct {
	QuestionID int
	Text       string
}

// ChooseValue picks the value of a select step; an empty value clears it
type ChooseValue struct {
	QuestionID int
	Value      string
}

// ToggleValue adds or removes one value of a multiselect step
type ToggleValue struct {
	QuestionID int
	Value      string
	Checked    bool
}

// SetValues replaces all values of a multiselect step
type SetValues struct {
	QuestionID int
	Values     []string
}

// SetNotes attaches free notes to an answered question
type SetNotes struct {
	QuestionID int
	Notes      string
}

// Clear removes the answer of a question
type Clear struct {
	QuestionID int
}

func (e SelectOption) Question() int { return e.QuestionID }
func (e SetText) Question() int      { return e.QuestionID }
func (e ChooseValue) Question() int  { return e.QuestionID }
func (e ToggleValue) Question() int  { return e.QuestionID }
func (e SetValues) Question() int    { return e.QuestionID }
func (e SetNotes) Question() int     { return e.QuestionID }
func (e Clear) Question() int        { return e.QuestionID }

// Apply is the pure transition function of the answer set. It validates the
// event against the questionnaire and returns the next set; set is never
// modified.
func Apply(q *Questionnaire, set AnswerSet, ev Event) (AnswerSet, error) {
	step, ok := q.Step(ev.Question())
	if !ok {
		return set, fmt.Errorf("question %d: %w", ev.Question(), ErrUnknownQuestion)
	}
	prev, _ := set.Get(step.QuestionID)

	switch e := ev.(type) {
	case SelectOption:
		if step.Kind != KindChoice {
			return set, mismatch(step, "option index")
		}
		if e.Index < 0 || e.Index >= step.OptionCount {
			return set, fmt.Errorf("question %d option %d of %d: %w", step.QuestionID, e.Index, step.OptionCount, ErrOptionOutOfRange)
		}
		return set.with(step.QuestionID, Entry{Option: e.Index, HasOption: true, Notes: prev.Notes}), nil

	case SetText:
		if step.Kind != KindText {
			return set, mismatch(step, "text")
		}
		if e.Text == "" {
			return set.without(step.QuestionID), nil
		}
		return set.with(step.QuestionID, Entry{Value: model.TextValue(e.Text), Notes: prev.Notes}), nil

	case ChooseValue:
		if step.Kind != KindSelect {
			return set, mismatch(step, "single value")
		}
		if e.Value == "" {
			return set.without(step.QuestionID), nil
		}
		if !step.allows(e.Value) {
			return set, fmt.Errorf("question %d value %q: %w", step.QuestionID, e.Value, ErrUnknownValue)
		}
		return set.with(step.QuestionID, Entry{Value: model.TextValue(e.Value), Notes: prev.Notes}), nil

	case ToggleValue:
		if step.Kind != KindMultiselect {
			return set, mismatch(step, "value list")
		}
		if !step.allows(e.Value) {
			return set, fmt.Errorf("question %d value %q: %w", step.QuestionID, e.Value, ErrUnknownValue)
		}
		current := prev.Value.List()
		next := make([]string, 0, len(current)+1)
		for _, v := range current {
			if v != e.Value {
				next = append(next, v)
			}
		}
		if e.Checked {
			next = append(next, e.Value)
		}
		if len(next) == 0 {
			return set.without(step.QuestionID), nil
		}
		return set.with(step.QuestionID, Entry{Value: model.ListValue(next...), Notes: prev.Notes}), nil

	case SetValues:
		if step.Kind != KindMultiselect {
			return set, mismatch(step, "value list")
		}
		seen := make(map[string]bool, len(e.Values))
		values := make([]string, 0, len(e.Values))
		for _, v := range e.Values {
			if !step.allows(v) {
				return set, fmt.Errorf("question %d value %q: %w", step.QuestionID, v, ErrUnknownValue)
			}
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return set.without(step.QuestionID), nil
		}
		return set.with(step.QuestionID, Entry{Value: model.ListValue(values...), Notes: prev.Notes}), nil

	case SetNotes:
		if !set.Answered(step.QuestionID) {
			return set, fmt.Errorf("question %d: %w", step.QuestionID, ErrNotAnswered)
		}
		prev.Notes = e.Notes
		return set.with(step.QuestionID, prev), nil

	case Clear:
		return set.without(step.QuestionID), nil

	default:
		return set, fmt.Errorf("question %d: unsupported event %T", step.QuestionID, ev)
	}
}

func mismatch(step Step, got string) error {
	return fmt.Errorf("question %d is %s, got %s: %w", step.QuestionID, step.Kind, got, ErrTypeMismatch)
}

// EventFor converts a raw value into the event matching the step kind:
// int for choice steps, string for text and select steps, []string for
// multiselect steps.
func EventFor(q *Questionnaire, questionID int, value interface{}) (Event, error) {
	step, ok := q.Step(questionID)
	if !ok {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrUnknownQuestion)
	}
	switch v := value.(type) {
	case int:
		if step.Kind != KindChoice {
			return nil, mismatch(step, "option index")
		}
		return SelectOption{QuestionID: questionID, Index: v}, nil
	case string:
		switch step.Kind {
		case KindText:
			return SetText{QuestionID: questionID, Text: v}, nil
		case KindSelect:
			return ChooseValue{QuestionID: questionID, Value: v}, nil
		}
		return nil, mismatch(step, "string")
	case []string:
		if step.Kind != KindMultiselect {
			return nil, mismatch(step, "string list")
		}
		return SetValues{QuestionID: questionID, Values: v}, nil
	default:
		return nil, fmt.Errorf("question %d: value of type %T: %w", questionID, value, ErrTypeMismatch)
	}
}
