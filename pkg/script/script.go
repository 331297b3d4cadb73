// Package script loads the pre-authored conversation threads that the
// playback engine replays. One YAML file per document id; a default.yaml
// serves documents without a dedicated script.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/models"
)

// Thread is one scripted conversation: a fixed message batch, optional
// keyword responders for user replies, and an optional validation rule to
// resolve when the thread completes.
type Thread struct {
	ID           string           `yaml:"id"`
	ResolvesRule string           `yaml:"resolves_rule"`
	Messages     []models.Message `yaml:"messages"`
	Replies      []Responder      `yaml:"replies"`
}

// Responder appends one pre-authored assistant message when a submitted
// reply contains any of its keywords. Plain keyword dispatch, nothing
// generative.
type Responder struct {
	Keywords []string        `yaml:"keywords"`
	Delay    config.Duration `yaml:"delay"`
	Message  models.Message  `yaml:"message"`
}

// Match reports whether the submitted text contains any keyword,
// case-insensitively.
func (r Responder) Match(text string) bool {
	t := strings.ToLower(text)
	for _, k := range r.Keywords {
		if k != "" && strings.Contains(t, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// DocumentScript is the full script file for one document.
type DocumentScript struct {
	Threads []Thread `yaml:"threads"`
}

// Thread finds a thread by id.
func (d DocumentScript) Thread(id string) (Thread, bool) {
	for _, t := range d.Threads {
		if t.ID == id {
			return t, true
		}
	}
	return Thread{}, false
}

// Set holds every loaded script, keyed by document id.
type Set struct {
	docs map[string]DocumentScript
}

// Load reads all *.yaml files under dir. File name (minus extension) is the
// document id. Files over maxBytes are rejected.
func Load(dir string, maxBytes int64) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripts dir: %w", err)
	}
	set := &Set{docs: make(map[string]DocumentScript)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		if fi, err := e.Info(); err == nil && maxBytes > 0 && fi.Size() > maxBytes {
			return nil, fmt.Errorf("script %s exceeds max size %d bytes", name, maxBytes)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var ds DocumentScript
		if err := yaml.Unmarshal(b, &ds); err != nil {
			return nil, fmt.Errorf("script %s: %w", name, err)
		}
		if err := validate(ds); err != nil {
			return nil, fmt.Errorf("script %s: %w", name, err)
		}
		docID := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		set.docs[docID] = ds
	}
	logger.Info("scripts_loaded", "dir", dir, "count", len(set.docs))
	return set, nil
}

// ForDocument returns the script for a document, falling back to the
// default script when no dedicated one exists.
func (s *Set) ForDocument(docID string) (DocumentScript, bool) {
	if ds, ok := s.docs[docID]; ok {
		return ds, true
	}
	ds, ok := s.docs["default"]
	return ds, ok
}

// Len returns the number of loaded document scripts.
func (s *Set) Len() int { return len(s.docs) }

func validate(ds DocumentScript) error {
	for _, t := range ds.Threads {
		if t.ID == "" {
			return fmt.Errorf("thread id missing")
		}
		if len(t.Messages) == 0 {
			return fmt.Errorf("thread %s: no messages", t.ID)
		}
		seen := make(map[string]bool)
		for _, m := range t.Messages {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("thread %s: %w", t.ID, err)
			}
			if seen[m.ID] {
				return fmt.Errorf("thread %s: duplicate message id %s", t.ID, m.ID)
			}
			seen[m.ID] = true
		}
		for i, r := range t.Replies {
			if len(r.Keywords) == 0 {
				return fmt.Errorf("thread %s: responder %d has no keywords", t.ID, i)
			}
			if err := r.Message.Validate(); err != nil {
				return fmt.Errorf("thread %s responder %d: %w", t.ID, i, err)
			}
		}
	}
	return nil
}
