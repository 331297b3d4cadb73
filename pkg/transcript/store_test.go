package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"playbackd/pkg/models"
)

func msg(id, text string) models.Message {
	return models.Message{
		ID:     id,
		Sender: models.SenderAssistant,
		Text:   text,
		Phases: []models.Phase{{Kind: models.PhaseStreaming}, {Kind: models.PhaseSuccess}},
	}
}

func TestInsertBatchIdempotent(t *testing.T) {
	s := New("t1")
	batch := []models.Message{msg("a", "one"), msg("b", "two")}

	res := s.InsertBatch(batch)
	require.Equal(t, []string{"a", "b"}, res.Added)
	require.Empty(t, res.AlreadyPresent)

	res2 := s.InsertBatch(batch)
	require.Empty(t, res2.Added)
	require.Equal(t, []string{"a", "b"}, res2.AlreadyPresent)

	require.Equal(t, 2, s.Len())
	vals := s.Values()
	require.Equal(t, "a", vals[0].ID)
	require.Equal(t, "b", vals[1].ID)
}

func TestInsertBatchNeverOverwrites(t *testing.T) {
	s := New("t1")
	s.InsertBatch([]models.Message{msg("a", "original")})
	s.InsertBatch([]models.Message{msg("a", "clobbered")})

	got, ok := s.Get("a")
	require.True(t, ok)
	require.Equal(t, "original", got.Text)
}

func TestReplaceIsNotUpsert(t *testing.T) {
	s := New("t1")
	err := s.Replace(msg("ghost", "boo"))
	require.ErrorIs(t, err, ErrNotFound)

	s.InsertBatch([]models.Message{msg("a", "one")})
	m, _ := s.Get("a")
	adv := m.Advanced()
	require.NoError(t, s.Replace(adv))

	got, _ := s.Get("a")
	require.Equal(t, 1, got.PhaseCursor)
}

func TestSuccessorLinks(t *testing.T) {
	s := New("t1")
	s.InsertBatch([]models.Message{msg("a", "one"), msg("b", "two")})
	s.InsertBatch([]models.Message{msg("c", "three")})

	succ, ok := s.Successor("a")
	require.True(t, ok)
	require.Equal(t, "b", succ.ID)

	succ, ok = s.Successor("b")
	require.True(t, ok)
	require.Equal(t, "c", succ.ID)

	_, ok = s.Successor("c")
	require.False(t, ok)

	// re-inserting an existing id must not re-link the chain
	s.InsertBatch([]models.Message{msg("a", "one")})
	succ, ok = s.Successor("b")
	require.True(t, ok)
	require.Equal(t, "c", succ.ID)
}

func TestValuesReflectReplace(t *testing.T) {
	s := New("t1")
	s.InsertBatch([]models.Message{msg("a", "one"), msg("b", "two")})
	m, _ := s.Get("b")
	require.NoError(t, s.Replace(m.Advanced()))

	vals := s.Values()
	require.Equal(t, 0, vals[0].PhaseCursor)
	require.Equal(t, 1, vals[1].PhaseCursor)
}

func TestLast(t *testing.T) {
	s := New("t1")
	_, ok := s.Last()
	require.False(t, ok)

	s.InsertBatch([]models.Message{msg("a", "one"), msg("b", "two")})
	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, "b", last.ID)
}
