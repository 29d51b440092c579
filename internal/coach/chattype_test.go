package coach

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatType(t *testing.T) {
	cases := map[string]ChatType{
		"workout": Workout,
		"treino":  Workout,
		" Dieta ": Diet,
		"diet":    Diet,
	}
	for in, want := range cases {
		got, err := ParseChatType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseChatType("cardio")
	assert.ErrorIs(t, err, ErrUnknownChatType)
}

func TestVariantTableIsComplete(t *testing.T) {
	for _, ct := range ChatTypes() {
		assert.True(t, ct.Valid())
		assert.NotEmpty(t, ct.Persona())
		assert.NotEmpty(t, ct.Greeting())
		assert.NotEmpty(t, ct.Keywords())
		assert.NotEmpty(t, ct.Plans().Table)
		assert.NotEmpty(t, ct.Plans().NameColumn)
		assert.NotEmpty(t, ct.Plans().ContentColumn)
		assert.True(t, IsGreeting(ct.Greeting()))
	}
	assert.False(t, ChatType(0).Valid())
	assert.Equal(t, "treino", Workout.Wire())
	assert.Equal(t, "dieta", Diet.Wire())
}

func TestIsPlanCandidate(t *testing.T) {
	assert.True(t, Workout.IsPlanCandidate("Dia A: Supino, 4 Séries de 10 repetições"))
	assert.True(t, Diet.IsPlanCandidate("Café da manhã: ovos e aveia (350 kcal)"))
	assert.False(t, Workout.IsPlanCandidate("Olá, tudo bem?"))
	assert.False(t, Diet.IsPlanCandidate("Faça 3 séries de agachamento"))
	assert.False(t, Workout.IsPlanCandidate(Workout.Greeting()))
}

func TestChatTypeJSON(t *testing.T) {
	var payload struct {
		Kind ChatType `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"dieta"}`), &payload))
	assert.Equal(t, Diet, payload.Kind)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"diet"}`, string(out))
}
