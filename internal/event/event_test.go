package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	level := 3.5
	e := New(AssessmentCompleted, AssessmentPayload{
		AssessmentID:   "a1",
		OrganizationID: "o1",
		Level:          1,
		MaturityLevel:  &level,
	})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, AssessmentCompleted, e.Type)
	assert.False(t, e.OccurredAt.IsZero())

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "assessment.completed", decoded["type"])
	payload := decoded["payload"].(map[string]interface{})
	assert.Equal(t, "a1", payload["assessment_id"])
	assert.Equal(t, 3.5, payload["maturity_level"])
}

func TestNewEventIDsAreUnique(t *testing.T) {
	a := New(AssessmentDeleted, nil)
	b := New(AssessmentDeleted, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDisabledPublisher(t *testing.T) {
	p, err := NewRabbitPublisher("", "assessment-events", nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	assert.NoError(t, p.Publish(context.Background(), New(OrganizationRegistered, nil)))
	assert.NoError(t, p.Close())
}
