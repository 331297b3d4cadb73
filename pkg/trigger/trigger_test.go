package trigger

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"playbackd/pkg/config"
	"playbackd/pkg/models"
	"playbackd/pkg/playback"
	"playbackd/pkg/script"
)

func testCfg() config.PlaybackConfig {
	off := false
	return config.PlaybackConfig{
		Animate:            &off,
		TickInterval:       config.Duration(2 * time.Millisecond),
		CharsPerTick:       8,
		LoadingGrace:       config.Duration(5 * time.Millisecond),
		AdvanceDelay:       config.Duration(5 * time.Millisecond),
		VisibilityDebounce: config.Duration(10 * time.Millisecond),
		ReplyDelay:         config.Duration(10 * time.Millisecond),
	}
}

func testScript() script.DocumentScript {
	return script.DocumentScript{Threads: []script.Thread{{
		ID:           "summary",
		ResolvesRule: "rule-totals",
		Messages: []models.Message{
			{
				ID: "m1", Sender: models.SenderAssistant, Text: "checking totals",
				Phases: []models.Phase{{Kind: models.PhaseStreaming}, {Kind: models.PhaseSuccess}},
			},
			{
				ID: "m2", Sender: models.SenderAssistant, Text: "totals match",
				Phases: []models.Phase{{Kind: models.PhaseHidden}, {Kind: models.PhaseSuccess}},
			},
		},
		Replies: []script.Responder{{
			Keywords: []string{"total"},
			Message: models.Message{
				ID: "r1", Sender: models.SenderAssistant, Text: "the total is unchanged",
				Phases: []models.Phase{{Kind: models.PhaseStreaming}, {Kind: models.PhaseSuccess}},
			},
		}},
	}}}
}

func newTestTrigger(t *testing.T, resolve Resolver) (*playback.Session, *Trigger) {
	t.Helper()
	s := playback.NewSession("sess-trig", models.Document{ID: "doc-1"}, testCfg())
	t.Cleanup(s.Close)
	return s, New(s, testScript(), testCfg(), resolve)
}

func count(s *playback.Session, thread string) int {
	msgs, err := s.Messages(thread)
	if err != nil {
		return -1
	}
	return len(msgs)
}

func TestThreadVisibleInjectsAfterDebounce(t *testing.T) {
	s, tr := newTestTrigger(t, nil)
	require.NoError(t, tr.ThreadVisible("summary"))

	// nothing lands before the debounce window elapses
	require.Equal(t, -1, count(s, "summary"))

	require.Eventually(t, func() bool {
		return count(s, "summary") == 2
	}, 2*time.Second, 2*time.Millisecond)
}

func TestThreadVisibleDebouncesRapidToggles(t *testing.T) {
	s, tr := newTestTrigger(t, nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, tr.ThreadVisible("summary"))
	}
	require.Eventually(t, func() bool {
		return count(s, "summary") == 2
	}, 2*time.Second, 2*time.Millisecond)

	// a later re-trigger of the populated thread stays a no-op
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, tr.ThreadVisible("summary"))
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, 2, count(s, "summary"))
}

func TestThreadVisibleUnknownThread(t *testing.T) {
	_, tr := newTestTrigger(t, nil)
	err := tr.ThreadVisible("nope")
	require.ErrorIs(t, err, ErrUnknownThread)
}

func TestThreadVisibleClosedSession(t *testing.T) {
	s, tr := newTestTrigger(t, nil)
	s.Close()
	require.ErrorIs(t, tr.ThreadVisible("summary"), playback.ErrClosed)
}

func TestCompletionResolvesRule(t *testing.T) {
	var resolved atomic.Int32
	_, tr := newTestTrigger(t, func(docID, ruleID string) {
		if docID == "doc-1" && ruleID == "rule-totals" {
			resolved.Add(1)
		}
	})
	require.NoError(t, tr.ThreadVisible("summary"))
	require.Eventually(t, func() bool {
		return resolved.Load() == 1
	}, 2*time.Second, 2*time.Millisecond)

	// completion is one-shot even if visibility fires again
	require.NoError(t, tr.ThreadVisible("summary"))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), resolved.Load())
}

func TestSubmitReplyAppendsUserMessage(t *testing.T) {
	s, tr := newTestTrigger(t, nil)
	require.NoError(t, tr.ThreadVisible("summary"))
	require.Eventually(t, func() bool {
		return count(s, "summary") == 2
	}, 2*time.Second, 2*time.Millisecond)

	m, err := tr.SubmitReply("summary", "just checking in")
	require.NoError(t, err)
	require.Equal(t, models.SenderUser, m.Sender)
	require.True(t, m.Delivered())
	require.Equal(t, 3, count(s, "summary"))

	// no keyword match, no responder
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, 3, count(s, "summary"))
}

func TestSubmitReplyDispatchesResponder(t *testing.T) {
	s, tr := newTestTrigger(t, nil)
	require.NoError(t, tr.ThreadVisible("summary"))
	require.Eventually(t, func() bool {
		return count(s, "summary") == 2
	}, 2*time.Second, 2*time.Millisecond)

	_, err := tr.SubmitReply("summary", "what is the TOTAL?")
	require.NoError(t, err)
	require.Equal(t, 3, count(s, "summary"))

	require.Eventually(t, func() bool {
		return count(s, "summary") == 4
	}, 2*time.Second, 2*time.Millisecond)

	msgs, err := s.Messages("summary")
	require.NoError(t, err)
	require.Equal(t, "r1", msgs[3].ID)
	require.Equal(t, "the total is unchanged", msgs[3].Text)
}

func TestSubmitReplyUnknownThread(t *testing.T) {
	_, tr := newTestTrigger(t, nil)
	_, err := tr.SubmitReply("nope", "hi")
	require.ErrorIs(t, err, ErrUnknownThread)
}
