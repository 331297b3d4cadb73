// Package reveal grows a monotonic prefix of a target string, tick by tick,
// to produce the typewriter effect. The engine is passive: the owning
// session schedules ticks and calls Sync on every render evaluation.
package reveal

// Engine animates one message's text. Not goroutine-safe; driven entirely
// from the owning session's run loop.
//
// The core correctness property is that onEnd fires exactly once per
// distinct text value, no matter how many times Sync is re-evaluated after
// completion. Two independent flags guard this: ended (the cursor reached
// the end at least once) and fired (the callback already ran for this ended
// state). Both reset only when the target text itself changes.
type Engine struct {
	full         []rune
	shown        int
	charsPerTick int
	enabled      bool
	paused       bool
	ended        bool
	fired        bool
	onEnd        func()
}

// New returns an engine with no text. charsPerTick values below 1 are
// clamped to 1. A disabled engine never animates; it snaps to full text.
func New(charsPerTick int, enabled bool, onEnd func()) *Engine {
	if charsPerTick < 1 {
		charsPerTick = 1
	}
	return &Engine{charsPerTick: charsPerTick, enabled: enabled, onEnd: onEnd}
}

// SetText points the engine at a (possibly new) target string. A changed
// text abandons the current reveal and restarts from empty, unless the
// engine is disabled. The same text is a no-op, preserving the completed
// state so the end callback cannot re-fire.
func (e *Engine) SetText(full string) {
	r := []rune(full)
	if string(e.full) == full {
		return
	}
	e.full = r
	if !e.enabled {
		// snap handled by Sync
		e.shown = 0
		e.ended = false
		e.fired = false
		return
	}
	e.shown = 0
	e.ended = false
	e.fired = false
}

// Pause freezes or resumes the cursor without resetting progress.
func (e *Engine) Pause(p bool) { e.paused = p }

// Paused reports whether ticking is suspended.
func (e *Engine) Paused() bool { return e.paused }

// Tick advances the cursor by charsPerTick, clamping at the end of the
// text. Paused or disabled engines ignore ticks.
func (e *Engine) Tick() {
	if e.paused || !e.enabled || e.ended {
		return
	}
	e.shown += e.charsPerTick
	if e.shown >= len(e.full) {
		e.shown = len(e.full)
		e.finish()
	}
}

// Sync is the pull-based re-evaluation hook, safe to call on every render.
// A disabled engine, or one whose text is already fully shown, snaps to the
// full text with zero ticks elapsed.
func (e *Engine) Sync() {
	if !e.enabled {
		e.shown = len(e.full)
		e.finish()
		return
	}
	if e.shown >= len(e.full) {
		e.shown = len(e.full)
		e.finish()
	}
}

// finish marks the natural end and runs the callback at most once per
// distinct text value.
func (e *Engine) finish() {
	e.ended = true
	if e.fired {
		return
	}
	e.fired = true
	if e.onEnd != nil {
		e.onEnd()
	}
}

// Displayed returns the currently revealed prefix.
func (e *Engine) Displayed() string { return string(e.full[:e.shown]) }

// Done reports whether the reveal has naturally ended for the current text.
func (e *Engine) Done() bool { return e.ended }
