package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThematicEmbedded(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		firstCategory string
		categories    int
	}{
		{Governance, 21, "Trasparenza Amministrativa", 7},
		{ISO56002, 25, "Contesto dell'Organizzazione", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Thematic(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, cat.Name)
			assert.Equal(t, tt.total, cat.Total)
			assert.Len(t, cat.Questions, tt.total)
			require.Len(t, cat.Categories, tt.categories)
			assert.Equal(t, tt.firstCategory, cat.Categories[0])
			assert.Equal(t, cat.Categories, Categories(cat.Questions))
			for i := 1; i < len(cat.Questions); i++ {
				assert.LessOrEqual(t, cat.Questions[i-1].Order, cat.Questions[i].Order)
			}
		})
	}
}

func TestThematicReturnsCopy(t *testing.T) {
	a, err := Thematic(Governance)
	require.NoError(t, err)
	a.Questions[0].Text = "mutated"
	a.Categories[0] = "mutated"

	b, err := Thematic(Governance)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.Questions[0].Text)
	assert.NotEqual(t, "mutated", b.Categories[0])
}

func TestThematicUnknown(t *testing.T) {
	_, err := Thematic("patto-di-senso")
	assert.ErrorIs(t, err, ErrUnknownCatalog)
}

func TestParseThematic(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		cats    []string
	}{
		{"derived categories", `
questions:
- {id: 2, category: B, text: y, order: 2, options: [{text: a, score: 1}]}
- {id: 1, category: A, text: x, order: 1, options: [{text: a, score: 1}]}`, false, []string{"A", "B"}},
		{"declared categories keep their order", `
categories: [B, A]
questions:
- {id: 1, category: A, text: x, options: [{text: a, score: 1}]}`, false, []string{"B", "A"}},
		{"undeclared category", `
categories: [A]
questions:
- {id: 1, category: C, text: x, options: [{text: a, score: 1}]}`, true, nil},
		{"empty", "questions: []", true, nil},
		{"score out of range", `
questions:
- {id: 1, category: A, text: x, options: [{text: a, score: 9}]}`, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := ParseThematic("test", []byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cats, cat.Categories)
			assert.Equal(t, len(cat.Questions), cat.Total)
		})
	}
}
