package model

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// AnswerValue holds a level-2 answer: a single string (text, select) or a
// list of strings (multiselect).
type AnswerValue struct {
	Text   string
	Values []string
	Multi  bool
}

// TextValue builds a single string answer
func TextValue(s string) *AnswerValue {
	return &AnswerValue{Text: s}
}

// ListValue builds a multiselect answer
func ListValue(values ...string) *AnswerValue {
	out := make([]string, len(values))
	copy(out, values)
	return &AnswerValue{Values: out, Multi: true}
}

// List coerces the value to an array, the form conditionals are checked against
func (v *AnswerValue) List() []string {
	if v == nil {
		return nil
	}
	if v.Multi {
		return v.Values
	}
	if v.Text == "" {
		return nil
	}
	return []string{v.Text}
}

// Empty reports whether the value counts as unanswered
func (v *AnswerValue) Empty() bool {
	return len(v.List()) == 0
}

// Clone returns a deep copy
func (v *AnswerValue) Clone() *AnswerValue {
	if v == nil {
		return nil
	}
	if v.Multi {
		return ListValue(v.Values...)
	}
	return TextValue(v.Text)
}

// Equal compares two values
func (v *AnswerValue) Equal(o *AnswerValue) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Multi != o.Multi || v.Text != o.Text || len(v.Values) != len(o.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.Multi {
		if v.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Values)
	}
	return json.Marshal(v.Text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = AnswerValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*v = AnswerValue{Values: values, Multi: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer value must be a string or a list of strings: %w", err)
	}
	*v = AnswerValue{Text: s}
	return nil
}

func (v AnswerValue) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if v.Multi {
		values := v.Values
		if values == nil {
			values = []string{}
		}
		return bson.MarshalValue(values)
	}
	return bson.MarshalValue(v.Text)
}

func (v *AnswerValue) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*v = AnswerValue{}
		return nil
	case bson.TypeArray:
		var values []string
		if err := raw.Unmarshal(&values); err != nil {
			return err
		}
		*v = AnswerValue{Values: values, Multi: true}
		return nil
	case bson.TypeString:
		*v = AnswerValue{Text: raw.StringValue()}
		return nil
	default:
		return fmt.Errorf("unsupported answer value type %s", t)
	}
}

// Answer is the wire and storage shape of one response. Level-1 answers use
// SelectedOption, level-2 answers use Value.
type Answer struct {
	QuestionID     int          `json:"question_id" bson:"questionId"`
	SelectedOption int          `json:"selected_option" bson:"selectedOption"`
	Value          *AnswerValue `json:"value,omitempty" bson:"value,omitempty"`
	Notes          string       `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Responses is the full answer snapshot persisted on an assessment
type Responses struct {
	Answers []Answer `json:"answers" bson:"answers"`
}

// SaveProgressRequest carries an autosave snapshot. Seq orders snapshots by
// send time so overlapping saves resolve last-write-wins.
type SaveProgressRequest struct {
	Answers []Answer `json:"answers"`
	Seq     int64    `json:"seq,omitempty"`
}

// SubmitRequest carries the complete answer set at submission
type SubmitRequest struct {
	Answers []Answer `json:"answers"`
}
