package scoring

import (
	"testing"

	"digitalmaturity/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(v float64) *float64 { return &v }

func level2Catalog() []model.Level2Question {
	yesNo := []model.Level2Option{{Value: "si", Text: "Si"}, {Value: "no", Text: "No"}}
	return []model.Level2Question{
		{ID: 1, Category: "Anagrafica", Type: model.Level2Text, Required: true},
		{ID: 2, Category: "Tecnologie", Type: model.Level2Select, Options: yesNo, Required: true},
		{ID: 3, Category: "Tecnologie", Type: model.Level2Select, Required: true,
			Conditional: &model.Conditional{QuestionID: 2, Value: "si"},
			Options: []model.Level2Option{
				{Value: "1", Text: "Basso", Score: pts(1)},
				{Value: "5", Text: "Alto", Score: pts(5)},
			}},
		{ID: 4, Category: "Tecnologie", Type: model.Level2Multiselect,
			Options: []model.Level2Option{
				{Value: "erp", Text: "ERP", Score: pts(4)},
				{Value: "crm", Text: "CRM", Score: pts(2)},
				{Value: "altro", Text: "Altro"},
			}},
		{ID: 5, Category: "Mercati", Type: model.Level2Select,
			Options: []model.Level2Option{{Value: "3", Text: "Medio", Score: pts(3)}}},
	}
}

func TestScoreLevel2(t *testing.T) {
	e := NewEngine(DefaultConfig())
	res, err := e.ScoreLevel2(level2Catalog(), []model.Answer{
		{QuestionID: 1, Value: model.TextValue("Acme")},
		{QuestionID: 2, Value: model.TextValue("si")},
		{QuestionID: 3, Value: model.TextValue("5")},
		{QuestionID: 4, Value: model.ListValue("erp", "crm", "altro")},
		{QuestionID: 5, Value: model.TextValue("3")},
	})
	require.NoError(t, err)

	// Tecnologie: (5 + mean(4,2)) / 2 = 4; Mercati: 3
	assert.Equal(t, map[string]float64{"Tecnologie": 4, "Mercati": 3}, res.Scores)
	assert.Equal(t, []string{"Tecnologie", "Mercati"}, res.CategoryNames())
	assert.InDelta(t, (4.0*2+3.0*1)/3, res.MaturityLevel, 1e-12)
	assert.Equal(t, model.PriorityMedium, res.GapAnalysis["Mercati"].Priority)
	assert.Equal(t, model.PriorityLow, res.GapAnalysis["Tecnologie"].Priority)
}

func TestScoreLevel2SkipsInactiveConditional(t *testing.T) {
	e := NewEngine(DefaultConfig())
	res, err := e.ScoreLevel2(level2Catalog(), []model.Answer{
		{QuestionID: 2, Value: model.TextValue("no")},
		{QuestionID: 3, Value: model.TextValue("1")},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Scores)
}

func TestScoreLevel2UnscoredSelectionsOnly(t *testing.T) {
	res, err := NewEngine(DefaultConfig()).ScoreLevel2(level2Catalog(), []model.Answer{
		{QuestionID: 4, Value: model.ListValue("altro")},
	})
	require.NoError(t, err)
	assert.NotContains(t, res.Scores, "Tecnologie")
}

func TestScoreLevel2IntegrityErrors(t *testing.T) {
	tests := []struct {
		name   string
		answer model.Answer
		want   error
	}{
		{"unknown question", model.Answer{QuestionID: 42, Value: model.TextValue("x")}, ErrUnknownQuestionID},
		{"unknown option", model.Answer{QuestionID: 2, Value: model.TextValue("forse")}, ErrInvalidAnswerValue},
		{"list on select", model.Answer{QuestionID: 2, Value: model.ListValue("si")}, ErrInvalidAnswerValue},
		{"string on multiselect", model.Answer{QuestionID: 4, Value: model.TextValue("erp")}, ErrInvalidAnswerValue},
		{"list on text", model.Answer{QuestionID: 1, Value: model.ListValue("a")}, ErrInvalidAnswerValue},
		{"repeated choice", model.Answer{QuestionID: 4, Value: model.ListValue("erp", "erp")}, ErrInvalidAnswerValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(DefaultConfig()).ScoreLevel2(level2Catalog(), []model.Answer{tt.answer})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, ValidateLevel2(level2Catalog(), []model.Answer{tt.answer}), tt.want)
		})
	}
}

func TestScoreLevel2Deterministic(t *testing.T) {
	answers := []model.Answer{
		{QuestionID: 5, Value: model.TextValue("3")},
		{QuestionID: 4, Value: model.ListValue("crm")},
	}
	e := NewEngine(DefaultConfig())
	a, err := e.ScoreLevel2(level2Catalog(), answers)
	require.NoError(t, err)
	b, err := e.ScoreLevel2(level2Catalog(), answers)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
