package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPhaseYAMLScalar(t *testing.T) {
	var p Phase
	require.NoError(t, yaml.Unmarshal([]byte(`success`), &p))
	require.Equal(t, PhaseSuccess, p.Kind)
	require.Zero(t, p.TimeoutMs)
}

func TestPhaseYAMLLoadingMap(t *testing.T) {
	var p Phase
	require.NoError(t, yaml.Unmarshal([]byte(`{loading: 1200ms}`), &p))
	require.Equal(t, PhaseLoading, p.Kind)
	require.EqualValues(t, 1200, p.TimeoutMs)

	var q Phase
	require.NoError(t, yaml.Unmarshal([]byte(`{loading: 500}`), &q))
	require.EqualValues(t, 500, q.TimeoutMs)
}

func TestPhaseYAMLRejects(t *testing.T) {
	var p Phase
	require.Error(t, yaml.Unmarshal([]byte(`sparkling`), &p))
	// bare loading has no timeout
	require.Error(t, yaml.Unmarshal([]byte(`loading`), &p))
	// only loading phases take timeouts
	require.Error(t, yaml.Unmarshal([]byte(`{success: 100ms}`), &p))
	require.Error(t, yaml.Unmarshal([]byte(`{loading: -5ms}`), &p))
}

func TestMessagePhaseNavigation(t *testing.T) {
	m := Message{
		ID:     "m1",
		Sender: SenderAssistant,
		Text:   "hi",
		Phases: []Phase{{Kind: PhaseStreaming}, {Kind: PhaseLoading, TimeoutMs: 100}, {Kind: PhaseSuccess}},
	}
	require.NoError(t, m.Validate())
	require.Equal(t, PhaseStreaming, m.CurrentPhase().Kind)

	next, ok := m.NextPhase()
	require.True(t, ok)
	require.Equal(t, PhaseLoading, next.Kind)

	m = m.Advanced()
	require.Equal(t, 1, m.PhaseCursor)
	require.True(t, m.Loading())

	m = m.Advanced()
	require.True(t, m.Delivered())
	_, ok = m.NextPhase()
	require.False(t, ok)

	// advancing past the last phase is a no-op
	m = m.Advanced()
	require.Equal(t, 2, m.PhaseCursor)
}

func TestMessageValidate(t *testing.T) {
	base := Message{ID: "x", Sender: SenderUser, Phases: []Phase{{Kind: PhaseSuccess}}}
	require.NoError(t, base.Validate())

	m := base
	m.ID = ""
	require.Error(t, m.Validate())

	m = base
	m.Sender = "robot"
	require.Error(t, m.Validate())

	m = base
	m.Phases = nil
	require.Error(t, m.Validate())

	m = base
	m.PhaseCursor = 1
	require.Error(t, m.Validate())

	m = base
	m.Phases = []Phase{{Kind: PhaseLoading}}
	require.Error(t, m.Validate())
}
