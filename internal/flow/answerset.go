package flow

import (
	"sort"

	"digitalmaturity/internal/model"
)

// Entry is the answer recorded for one question
type Entry struct {
	Option    int // choice steps
	HasOption bool
	Value     *model.AnswerValue // level-2 steps
	Notes     string
}

func (e Entry) empty() bool {
	return !e.HasOption && e.Value.Empty()
}

// AnswerSet maps question ids to answers. It is immutable: every
// transition returns a new set and leaves the receiver untouched.
type AnswerSet struct {
	entries map[int]Entry
}

// EmptyAnswers is the set with no answers
func EmptyAnswers() AnswerSet {
	return AnswerSet{}
}

// Get returns the entry of a question
func (s AnswerSet) Get(questionID int) (Entry, bool) {
	e, ok := s.entries[questionID]
	return e, ok
}

// Answered reports whether the question has a non-empty answer
func (s AnswerSet) Answered(questionID int) bool {
	e, ok := s.entries[questionID]
	return ok && !e.empty()
}

// Len is the number of answered questions
func (s AnswerSet) Len() int {
	return len(s.entries)
}

// ValuesOf returns the answer of a question coerced to a list
func (s AnswerSet) ValuesOf(questionID int) []string {
	e, ok := s.entries[questionID]
	if !ok {
		return nil
	}
	return e.Value.List()
}

// Answers renders the set as the wire snapshot, ordered by question id
func (s AnswerSet) Answers() []model.Answer {
	ids := make([]int, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]model.Answer, 0, len(ids))
	for _, id := range ids {
		e := s.entries[id]
		out = append(out, model.Answer{
			QuestionID:     id,
			SelectedOption: e.Option,
			Value:          e.Value.Clone(),
			Notes:          e.Notes,
		})
	}
	return out
}

func (s AnswerSet) with(questionID int, e Entry) AnswerSet {
	next := make(map[int]Entry, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[questionID] = e
	return AnswerSet{entries: next}
}

func (s AnswerSet) without(questionID int) AnswerSet {
	if _, ok := s.entries[questionID]; !ok {
		return s
	}
	next := make(map[int]Entry, len(s.entries))
	for k, v := range s.entries {
		if k != questionID {
			next[k] = v
		}
	}
	return AnswerSet{entries: next}
}

// FromAnswers rebuilds a set from stored answers. Answers that do not fit the
// questionnaire are dropped and their ids returned.
func FromAnswers(q *Questionnaire, answers []model.Answer) (AnswerSet, []int) {
	set := EmptyAnswers()
	var dropped []int
	for _, a := range answers {
		next, err := Apply(q, set, eventFor(q, a))
		if err != nil {
			dropped = append(dropped, a.QuestionID)
			continue
		}
		if a.Notes != "" {
			if withNotes, err := Apply(q, next, SetNotes{QuestionID: a.QuestionID, Notes: a.Notes}); err == nil {
				next = withNotes
			}
		}
		set = next
	}
	return set, dropped
}

func eventFor(q *Questionnaire, a model.Answer) Event {
	step, ok := q.Step(a.QuestionID)
	if !ok {
		return SelectOption{QuestionID: a.QuestionID, Index: a.SelectedOption}
	}
	switch step.Kind {
	case KindChoice:
		return SelectOption{QuestionID: a.QuestionID, Index: a.SelectedOption}
	case KindMultiselect:
		return SetValues{QuestionID: a.QuestionID, Values: a.Value.List()}
	case KindSelect:
		if a.Value != nil && a.Value.Multi {
			return SetValues{QuestionID: a.QuestionID, Values: a.Value.Values}
		}
		v := ""
		if a.Value != nil {
			v = a.Value.Text
		}
		return ChooseValue{QuestionID: a.QuestionID, Value: v}
	default:
		if a.Value != nil && a.Value.Multi {
			return SetValues{QuestionID: a.QuestionID, Values: a.Value.Values}
		}
		v := ""
		if a.Value != nil {
			v = a.Value.Text
		}
		return SetText{QuestionID: a.QuestionID, Text: v}
	}
}
