package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sender identifies who (or what rendering variant) authored a message.
type Sender string

const (
	SenderUser              Sender = "user"
	SenderAssistant         Sender = "assistant"
	SenderAssistantChart    Sender = "assistant-with-chart"
	SenderAssistantSubsteps Sender = "assistant-with-substeps"
	SenderAssistantAction   Sender = "assistant-action"
)

// Valid reports whether s is one of the known sender roles.
func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderAssistant, SenderAssistantChart, SenderAssistantSubsteps, SenderAssistantAction:
		return true
	}
	return false
}

// PhaseKind is one discrete delivery state of a message.
type PhaseKind string

const (
	PhaseHidden    PhaseKind = "hidden"
	PhaseLoading   PhaseKind = "loading"
	PhaseStreaming PhaseKind = "streaming"
	PhaseSuccess   PhaseKind = "success"
)

// Phase is a single entry in a message's delivery sequence. TimeoutMs is
// only meaningful for loading phases.
type Phase struct {
	Kind      PhaseKind `json:"kind" yaml:"kind"`
	TimeoutMs int64     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// Timeout returns the loading dwell as a duration.
func (p Phase) Timeout() time.Duration { return time.Duration(p.TimeoutMs) * time.Millisecond }

// UnmarshalYAML accepts either a bare kind ("success") or a single-key map
// binding a loading phase to its timeout ({loading: 1200ms}).
func (p *Phase) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		k := PhaseKind(strings.TrimSpace(node.Value))
		if !validKind(k) {
			return fmt.Errorf("unknown phase kind: %q", node.Value)
		}
		if k == PhaseLoading {
			return fmt.Errorf("loading phase requires a timeout, use {loading: <duration>}")
		}
		p.Kind = k
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("phase map must have exactly one key")
		}
		k := PhaseKind(strings.TrimSpace(node.Content[0].Value))
		if k != PhaseLoading {
			return fmt.Errorf("only loading phases take a timeout, got %q", k)
		}
		ms, err := parseMillis(node.Content[1].Value)
		if err != nil {
			return fmt.Errorf("invalid loading timeout: %w", err)
		}
		if ms <= 0 {
			return fmt.Errorf("loading timeout must be positive")
		}
		p.Kind = k
		p.TimeoutMs = ms
		return nil
	}
	return fmt.Errorf("invalid phase node")
}

func validKind(k PhaseKind) bool {
	switch k {
	case PhaseHidden, PhaseLoading, PhaseStreaming, PhaseSuccess:
		return true
	}
	return false
}

// parseMillis accepts Go duration strings ("1.2s") or plain integers
// interpreted as milliseconds.
func parseMillis(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseDuration(raw); err == nil {
		return d.Milliseconds(), nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	return 0, fmt.Errorf("cannot parse %q as duration or milliseconds", raw)
}

// Message is the atomic unit of a transcript. PhaseCursor always satisfies
// 0 <= PhaseCursor < len(Phases); mutate it only through Advanced.
type Message struct {
	ID          string  `json:"id" yaml:"id"`
	Thread      string  `json:"thread,omitempty" yaml:"thread,omitempty"`
	Sender      Sender  `json:"sender" yaml:"sender"`
	Text        string  `json:"text" yaml:"text"`
	Phases      []Phase `json:"phases" yaml:"phases"`
	PhaseCursor int     `json:"phase_cursor" yaml:"phase_cursor,omitempty"`
	CreatedTS   int64   `json:"created_ts,omitempty" yaml:"created_ts,omitempty"`
	ShowSender  bool    `json:"show_sender,omitempty" yaml:"show_sender,omitempty"`
	ShowFooter  bool    `json:"show_footer,omitempty" yaml:"show_footer,omitempty"`
}

// Validate checks the structural invariants of a message.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id missing")
	}
	if !m.Sender.Valid() {
		return fmt.Errorf("message %s: unknown sender %q", m.ID, m.Sender)
	}
	if len(m.Phases) == 0 {
		return fmt.Errorf("message %s: phases must be non-empty", m.ID)
	}
	if m.PhaseCursor < 0 || m.PhaseCursor >= len(m.Phases) {
		return fmt.Errorf("message %s: phase cursor %d out of range [0,%d)", m.ID, m.PhaseCursor, len(m.Phases))
	}
	for i, p := range m.Phases {
		if !validKind(p.Kind) {
			return fmt.Errorf("message %s: phase %d has unknown kind %q", m.ID, i, p.Kind)
		}
		if p.Kind == PhaseLoading && p.TimeoutMs <= 0 {
			return fmt.Errorf("message %s: loading phase %d needs a positive timeout", m.ID, i)
		}
	}
	return nil
}

// CurrentPhase returns the phase under the cursor.
func (m Message) CurrentPhase() Phase { return m.Phases[m.PhaseCursor] }

// NextPhase returns the phase after the cursor, if any.
func (m Message) NextPhase() (Phase, bool) {
	if m.PhaseCursor+1 < len(m.Phases) {
		return m.Phases[m.PhaseCursor+1], true
	}
	return Phase{}, false
}

// Advanced returns a copy with the cursor moved forward one step. Advancing
// past the last phase is a no-op; the cursor never skips or regresses.
func (m Message) Advanced() Message {
	if m.PhaseCursor+1 < len(m.Phases) {
		m.PhaseCursor++
	}
	return m
}

// Hidden reports whether the message currently renders nothing.
func (m Message) Hidden() bool { return m.CurrentPhase().Kind == PhaseHidden }

// Loading reports whether the message is in a loading dwell.
func (m Message) Loading() bool { return m.CurrentPhase().Kind == PhaseLoading }

// Delivered reports whether the message's current phase is success.
func (m Message) Delivered() bool { return m.CurrentPhase().Kind == PhaseSuccess }
