package playback

import (
	"time"

	"playbackd/pkg/logger"
	"playbackd/pkg/models"
	"playbackd/pkg/reveal"
	"playbackd/pkg/telemetry"
)

// driver ties one message's reveal engine to the lifecycle machinery and,
// through the transcript's successor links, to the next message in the
// thread. All methods run on the session loop.
//
// Every timer callback re-fetches the latest message value at fire time; a
// concurrent advancement may have replaced the message since the timer was
// scheduled, and acting on the captured value would lose that write.
type driver struct {
	s      *Session
	st     *threadState
	id     string
	eng    *reveal.Engine
	ticked bool // a tick timer is outstanding
	dwell  bool // a loading dwell timer is outstanding
}

func newDriver(s *Session, st *threadState, m models.Message) *driver {
	d := &driver{s: s, st: st, id: m.ID}
	animate := s.cfg.Animated() && !m.Delivered()
	d.eng = reveal.New(s.cfg.CharsPerTick, animate, d.onNaturalEnd)
	d.eng.SetText(m.Text)
	return d
}

// reconcile re-reads the message and makes the runtime state match its
// current phase: hidden runs nothing, loading arms the unconditional dwell
// timer, visible phases run the reveal.
func (d *driver) reconcile() {
	m, ok := d.st.store.Get(d.id)
	if !ok {
		return
	}
	switch m.CurrentPhase().Kind {
	case models.PhaseHidden:
		// renders nothing, no reveal engine runs
	case models.PhaseLoading:
		d.armDwell(m.CurrentPhase().Timeout(), false)
	default:
		d.eng.SetText(m.Text)
		d.eng.Sync()
		if !d.eng.Done() {
			d.scheduleTick()
		}
	}
}

// armDwell schedules the loading-phase timer once. chained dwells (entered
// from a reveal completion) re-run the chain routine so the successor
// advances too; initial dwells just move the cursor forward.
func (d *driver) armDwell(timeout time.Duration, chained bool) {
	if d.dwell {
		return
	}
	d.dwell = true
	fire := func() {
		d.dwell = false
		if chained {
			d.chainAdvance()
			return
		}
		d.advanceSelf()
		d.reconcile()
	}
	if chained {
		timeout += d.s.cfg.LoadingGrace.Duration()
	}
	d.s.Schedule(timeout, fire)
}

func (d *driver) scheduleTick() {
	if d.ticked {
		return
	}
	d.ticked = true
	d.s.Schedule(d.s.cfg.TickInterval.Duration(), func() {
		d.ticked = false
		d.tick()
	})
}

func (d *driver) tick() {
	m, ok := d.st.store.Get(d.id)
	if !ok {
		return
	}
	// ticking only runs while the message is actually rendered
	if m.Hidden() || m.Loading() {
		return
	}
	d.eng.Tick()
	if !d.eng.Done() {
		d.scheduleTick()
	}
}

// Pause freezes this message's reveal without resetting it.
func (d *driver) pause(p bool) {
	d.eng.Pause(p)
	if !p && !d.eng.Done() {
		d.scheduleTick()
	}
}

// onNaturalEnd is invoked by the reveal engine exactly once per distinct
// text value; the chain routine below is the re-entrancy-sensitive part it
// protects.
func (d *driver) onNaturalEnd() {
	telemetry.RevealsCompleted.Inc()
	d.chainAdvance()
}

// chainAdvance is the chain advancement routine: inspect the latest value's
// current and next phase, schedule the follow-on work, and move this
// message's own cursor forward.
func (d *driver) chainAdvance() {
	m, ok := d.st.store.Get(d.id)
	if !ok {
		logger.Warn("chain_message_missing", "session", d.s.ID, "thread", d.st.store.Thread(), "id", d.id)
		telemetry.ChainAborts.Inc()
		return
	}
	next, hasNext := m.NextPhase()
	switch {
	case hasNext && next.Kind == models.PhaseLoading:
		// show the spinner for its dwell plus a little grace, then
		// continue the chain from whatever the message looks like then
		d.armDwell(next.Timeout(), true)
	case (hasNext && next.Kind == models.PhaseSuccess) || m.Delivered():
		// pacing delay, then unlock the next message in the thread
		d.s.Schedule(d.s.cfg.AdvanceDelay.Duration(), d.advanceSuccessor)
	}
	if hasNext {
		d.advanceSelf()
		d.reconcile()
	}
	d.s.checkCompletion(d.st)
}

// advanceSelf moves this message's cursor forward one step via a
// whole-message replace. No-op at the last phase.
func (d *driver) advanceSelf() {
	m, ok := d.st.store.Get(d.id)
	if !ok {
		telemetry.ChainAborts.Inc()
		return
	}
	adv := m.Advanced()
	if adv.PhaseCursor == m.PhaseCursor {
		return
	}
	if err := d.st.store.Replace(adv); err != nil {
		logger.Warn("chain_replace_failed", "session", d.s.ID, "id", d.id, "error", err)
		telemetry.ChainAborts.Inc()
		return
	}
	telemetry.ChainAdvances.Inc()
	d.s.checkCompletion(d.st)
}

// advanceSuccessor unlocks the message that follows this one in the
// authored chain. A missing successor aborts quietly: this is best-effort
// animation, not a correctness-critical path.
func (d *driver) advanceSuccessor() {
	succ, ok := d.st.store.Successor(d.id)
	if !ok {
		logger.Debug("chain_no_successor", "session", d.s.ID, "id", d.id)
		return
	}
	adv := succ.Advanced()
	if adv.PhaseCursor == succ.PhaseCursor {
		return
	}
	if err := d.st.store.Replace(adv); err != nil {
		logger.Warn("chain_replace_failed", "session", d.s.ID, "id", succ.ID, "error", err)
		telemetry.ChainAborts.Inc()
		return
	}
	telemetry.ChainAdvances.Inc()
	if nd, ok := d.st.drivers[succ.ID]; ok {
		nd.reconcile()
	}
	d.s.checkCompletion(d.st)
}
